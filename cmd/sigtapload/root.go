package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/config"
	"github.com/amecontrol/sigtapload/internal/logging"
)

var (
	cfg        config.Config
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "sigtapload",
	Short: "Procedure-code CSV importer for the clinic catalogue",
	Long: "Reconciles SIGTAP-style procedure-code spreadsheets (CSV) against the Postgres catalogue " +
		"in a single transaction, and serves lookups and uploads over HTTP.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", "", "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&envFile, "env-file", ".env", "Path to a dotenv file; a missing default file is ignored")
}

// loadConfig runs before every subcommand: .env first, so DATABASE_URL and
// JWT_SIGNING_KEY can come from it, then the YAML file and defaults.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil {
		explicit := cmd.Flags().Changed("env-file")
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}

	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	cfg.ApplyDefaults()
	return nil
}

func newLogger() zerolog.Logger {
	return logging.Setup(cfg.LogFormat, cfg.LogLevel)
}
