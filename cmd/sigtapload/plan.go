package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/catalog"
	"github.com/amecontrol/sigtapload/internal/csvread"
	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/exitcode"
	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/normalize"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run: show column mapping and row outcomes without writing",
	Long: "Parses the CSV and reports what an import would do. With a database configured, " +
		"rows are checked against the catalogue; otherwise every code is treated as new.",
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV file (required)")
	f.BoolVar(&cfg.Overwrite, "overwrite", false, "Plan as if --overwrite were given")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ReadError)
	}

	f, err := os.Open(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open file")
		os.Exit(exitcode.ReadError)
	}
	defer f.Close()

	var find importer.Finder
	source := "none (all codes treated as new)"
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		find = catalog.NewPGRepository(pool)
		source = "database"
	}

	plan, err := importer.PlanImport(ctx, find, f, importer.Options{Overwrite: cfg.Overwrite}, log)
	if err != nil {
		log.Error().Err(err).Msg("plan failed")
		if importer.IsColumnError(err) {
			os.Exit(exitcode.ValidationError)
		}
		os.Exit(exitcode.ReadError)
	}

	fmt.Println("=== sigtapload plan ===")
	fmt.Printf("File:       %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:    %s\n", sha)
	fmt.Printf("Delimiter:  %q\n", plan.Delimiter)
	fmt.Printf("Catalogue:  %s\n", source)
	fmt.Println()
	fmt.Println("Column mapping:")
	for _, field := range csvread.AllFields {
		header := plan.Columns.Header(field)
		if header == "" {
			header = "(unmapped)"
		}
		fmt.Printf("  %-12s <- %s\n", field, header)
	}
	for _, ig := range plan.Columns.Ignored {
		fmt.Printf("  ignored column %d %q (duplicate %s)\n", ig.Index+1, ig.Header, ig.Field)
	}
	fmt.Println()

	r := plan.Report
	fmt.Printf("Rows:       %d\n", plan.RowsRead)
	fmt.Printf("Create:     %d\n", r.Created)
	fmt.Printf("Update:     %d\n", r.Updated)
	fmt.Printf("Skip:       %d\n", plan.Skipped)
	fmt.Printf("Fail:       %d\n", len(r.FailedRows))
	for _, fl := range r.Failures {
		fmt.Printf("  row %d: %s\n", fl.Row, fl.Reason)
	}
	return nil
}
