package main

import (
	"os"

	"github.com/amecontrol/sigtapload/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
