package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/catalog"
	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/exitcode"
	"github.com/amecontrol/sigtapload/internal/model"
	"github.com/amecontrol/sigtapload/internal/parquetio"
)

var (
	exportOut    string
	exportFilter struct {
		class      string
		specialty  string
		search     string
		activeOnly bool
	}
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue to a Parquet file",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOut, "out", "", "Output Parquet path (required)")
	f.StringVar(&exportFilter.class, "class", "", "Only this procedure class (ELETIVA, URGENCIA, EMERGENCIA, AMBULATORIAL)")
	f.StringVar(&exportFilter.specialty, "specialty", "", "Only specialties containing this text")
	f.StringVar(&exportFilter.search, "search", "", "Only codes or descriptions containing this text")
	f.BoolVar(&exportFilter.activeOnly, "active-only", false, "Skip inactive codes")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	filter := catalog.ListFilter{
		Specialty:  strings.TrimSpace(exportFilter.specialty),
		Search:     strings.TrimSpace(exportFilter.search),
		ActiveOnly: exportFilter.activeOnly,
	}
	if exportFilter.class != "" {
		class, ok := model.ClassByName(strings.ToUpper(strings.TrimSpace(exportFilter.class)))
		if !ok {
			log.Error().Str("class", exportFilter.class).Msg("unknown procedure class")
			os.Exit(exitcode.UsageError)
		}
		filter.Class = class
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	records, err := catalog.NewPGRepository(pool).List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("list catalogue failed")
		os.Exit(exitcode.StoreError)
	}

	n, err := parquetio.WriteFile(exportOut, parquetio.Rows(records))
	if err != nil {
		log.Error().Err(err).Msg("write export failed")
		os.Exit(exitcode.StoreError)
	}
	if err := parquetio.Verify(exportOut, n); err != nil {
		log.Error().Err(err).Msg("export verification failed")
		os.Exit(exitcode.ValidationError)
	}

	fmt.Printf("Exported %d procedure codes to %s\n", n, exportOut)
	return nil
}
