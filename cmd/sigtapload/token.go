package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amecontrol/sigtapload/internal/auth"
	"github.com/amecontrol/sigtapload/internal/exitcode"
)

var tokenFlags struct {
	subject string
	tier    int
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.subject, "sub", "", "User identity carried by the token (required)")
	f.IntVar(&tokenFlags.tier, "tier", auth.TierAdmin, "Access tier")
	f.DurationVar(&tokenFlags.ttl, "ttl", 0, "Token lifetime (default server.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("sub")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if err := cfg.ValidateServer(); err != nil {
		log.Error().Err(err).Msg("server config invalid")
		os.Exit(exitcode.UsageError)
	}

	ttl := tokenFlags.ttl
	if ttl == 0 {
		ttl = cfg.Server.TokenTTL
	}
	token, err := auth.Issue(cfg.JWT(), tokenFlags.subject, tokenFlags.tier, ttl)
	if err != nil {
		log.Error().Err(err).Msg("token minting failed")
		os.Exit(exitcode.UsageError)
	}
	fmt.Println(token)
	return nil
}
