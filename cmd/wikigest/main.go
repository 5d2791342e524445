package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikigest/internal/config"
	"github.com/dgallion1/wikigest/internal/logging"
)

var version = "0.1.0"

// errMismatch is returned when a fixture check fails. The diff has already
// been printed.
var errMismatch = errors.New("fixtures did not match")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wikigest",
		Short: "Parse wiki markup into property trees",
		Long: `wikigest reads MediaWiki XML dumps, cuts every page into language
sections and parses each section's markup into a nested property tree.

Output is one JSON file per page and language, optionally mirrored into
SQLite, with an optional lexeme export.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(adaptersCmd())
	return rootCmd
}

// loadConfig reads the shared configuration. Flags override it per command.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return logging.New(cmd.ErrOrStderr(), level, logging.FormatAuto)
}
