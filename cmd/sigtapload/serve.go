package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/db"
	"github.com/amecontrol/sigtapload/internal/exitcode"
	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookup and upload API over HTTP",
	RunE:  runServe,
}

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides server.listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveListen != "" {
		cfg.Server.ListenAddr = serveListen
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error().Err(err).Msg("server config invalid")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	svc := importer.NewService(pool, log)
	scfg := server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		AdminTier:       cfg.Server.AdminTier,
		JWT:             cfg.JWT(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	e := server.New(scfg, server.NewHandler(svc, svc, pool, log), log)

	if err := server.Run(ctx, e, scfg, log); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(exitcode.UsageError)
	}
	return nil
}
