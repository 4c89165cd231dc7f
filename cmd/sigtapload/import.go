package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/exitcode"
	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a procedure-code CSV into the catalogue",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV file (required)")
	f.BoolVar(&cfg.Overwrite, "overwrite", false, "Update codes that already exist")
	f.StringVar(&cfg.SubmittedBy, "submitted-by", os.Getenv("USER"), "Identity recorded as creator of new codes")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	f, err := os.Open(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open file")
		os.Exit(exitcode.ReadError)
	}
	defer f.Close()

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	svc := importer.NewService(pool, log)
	summary, err := svc.Run(ctx, f, importer.Options{
		Overwrite:   cfg.Overwrite,
		SubmittedBy: model.Identity(cfg.SubmittedBy),
		FileName:    filepath.Base(cfg.FilePath),
	})
	if err != nil {
		var ie *importer.ImportError
		if errors.As(err, &ie) {
			log.Error().Err(ie.Err).Str("phase", ie.Phase).Msg("import failed")
			switch ie.Phase {
			case importer.PhaseColumns:
				os.Exit(exitcode.ValidationError)
			case importer.PhaseRead:
				os.Exit(exitcode.ReadError)
			default:
				os.Exit(exitcode.StoreError)
			}
		}
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitcode.StoreError)
	}

	r := summary.Report
	fmt.Printf("Import complete: %d created, %d updated, %d failed of %d rows (%.1fs)\n",
		r.Created, r.Updated, len(r.FailedRows), summary.RowsRead, summary.Duration.Seconds())
	if len(r.FailedRows) > 0 {
		fmt.Printf("Failed rows: %s\n", formatRows(r.FailedRows))
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func formatRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprint(r)
	}
	return strings.Join(parts, ", ")
}
