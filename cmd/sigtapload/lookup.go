package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/exitcode"
	"github.com/amecontrol/sigtapload/internal/importer"
)

var lookupCode string

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up one procedure code in the catalogue",
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupCode, "code", "", "Procedure code (required)")
	_ = lookupCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	if strings.TrimSpace(lookupCode) == "" {
		log.Error().Msg("--code must not be blank")
		os.Exit(exitcode.UsageError)
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

	p, err := importer.NewService(pool, log).Lookup(ctx, lookupCode)
	if err != nil {
		log.Error().Err(err).Msg("lookup failed")
		os.Exit(exitcode.StoreError)
	}
	if p == nil {
		fmt.Printf("Code %s not found\n", strings.TrimSpace(lookupCode))
		return nil
	}

	fmt.Printf("Code:        %s\n", p.Code)
	fmt.Printf("Description: %s\n", p.Description)
	fmt.Printf("Price:       %s\n", p.Price.StringFixed(2))
	fmt.Printf("Class:       %s\n", p.ProcedureClass)
	fmt.Printf("Specialty:   %s\n", p.Specialty)
	fmt.Printf("Active:      %t\n", p.Active)
	if p.CreatedBy != nil {
		fmt.Printf("Created by:  %s\n", *p.CreatedBy)
	}
	fmt.Printf("Updated at:  %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
