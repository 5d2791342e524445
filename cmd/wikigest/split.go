package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/export"
	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/pipeline"
	"github.com/dgallion1/wikigest/internal/splitter"
	"github.com/dgallion1/wikigest/internal/store"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [languages...]",
		Short: "Split an XML dump into parsed language entries",
		Long: `Stream a MediaWiki XML dump, cut every page into language sections and
write each parsed section to <out>/<language>/<title>.

Languages given as arguments limit which sections are kept. They match as
substrings unless --equality is set.

Example:
  wikigest split --xml dewiktionary.xml --out out --adapter dewiktionary Deutsch
  wikigest split --xml enwiktionary.xml --namespace 0 --export German`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			xmlPath, _ := flags.GetString("xml")
			if xmlPath == "" {
				return errors.New("--xml flag is required")
			}
			if flags.Changed("out") {
				cfg.OutputDir, _ = flags.GetString("out")
			}
			if flags.Changed("namespace") {
				cfg.Namespaces, _ = flags.GetIntSlice("namespace")
			}
			if flags.Changed("adapter") {
				cfg.Adapter, _ = flags.GetString("adapter")
			}
			if flags.Changed("adapters-dir") {
				cfg.AdaptersDir, _ = flags.GetString("adapters-dir")
			}
			if flags.Changed("sqlite") {
				cfg.SQLitePath, _ = flags.GetString("sqlite")
			}
			if flags.Changed("concurrency") {
				cfg.MaxConcurrentPages, _ = flags.GetInt("concurrency")
			}
			for name, dst := range map[string]*bool{
				"equality":         &cfg.Equality,
				"strip-categories": &cfg.StripCategories,
				"stop-on-error":    &cfg.StopOnError,
			} {
				if flags.Changed(name) {
					*dst, _ = flags.GetBool(name)
				}
			}
			if len(args) > 0 {
				cfg.Languages = args
			}
			raw, _ := flags.GetBool("raw")
			doExport, _ := flags.GetBool("export")
			verbose, _ := flags.GetBool("verbose")

			log := newLogger(cmd, cfg)

			registry := adapter.NewRegistry()
			if err := registry.LoadDirectory(cfg.AdaptersDir); err != nil {
				return err
			}
			a, err := registry.ForName(cfg.Adapter)
			if err != nil {
				return err
			}
			var exp export.Exporter
			if doExport {
				if exp, err = export.ForName(cfg.Exporter); err != nil {
					return err
				}
			}

			f, err := os.Open(xmlPath)
			if err != nil {
				return fmt.Errorf("open dump: %w", err)
			}
			defer f.Close()

			files, err := store.NewFileSink(cfg.OutputDir, log)
			if err != nil {
				return err
			}
			sinks := store.Multi{files}
			if cfg.SQLitePath != "" {
				db, err := store.OpenSQLite(cmd.Context(), cfg.SQLitePath, log)
				if err != nil {
					return err
				}
				sinks = append(sinks, db)
			}
			defer sinks.Close()

			runner := &pipeline.Runner{
				Sink: sinks,
				Deps: pipeline.Deps{
					Adapter: a,
					Filter: splitter.Filter{
						Namespaces: cfg.Namespaces,
						Languages:  cfg.Languages,
						Equality:   cfg.Equality,
					},
					Exporter: exp,
					Parse: parser.Options{
						Debug:           verbose || cfg.Debug,
						StripCategories: cfg.StripCategories,
						MaxDepth:        cfg.MaxDepth,
						Logger:          log,
					},
				},
				Raw:         raw,
				StopOnError: cfg.StopOnError,
				Concurrency: cfg.MaxConcurrentPages,
				Log:         log,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("splitting dump", "xml", xmlPath, "out", cfg.OutputDir, "adapter", a.Name(), "languages", cfg.Languages)
			tally := &pipeline.Tally{}
			start := time.Now()
			runErr := runner.Run(ctx, f, tally)
			p := tally.Progress()

			summary := fmt.Sprintf("%d pages, %d saved, %d failed in %s",
				p.PagesRead, p.Saved, p.PagesFailed, time.Since(start).Round(time.Millisecond))
			switch {
			case runErr != nil:
				fmt.Fprintln(cmd.OutOrStdout(), ErrorStyle.Render("stopped: ")+summary)
			case p.PagesFailed > 0:
				fmt.Fprintln(cmd.OutOrStdout(), WarningStyle.Render("done with errors: ")+summary)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("done: ")+summary)
			}
			return runErr
		},
	}

	cmd.Flags().String("xml", "", "Path to the MediaWiki XML dump")
	cmd.Flags().StringP("out", "o", "out", "Output directory")
	cmd.Flags().IntSliceP("namespace", "n", nil, "Namespaces to keep (repeatable)")
	cmd.Flags().StringP("adapter", "a", adapter.BaseName, "Language boundary adapter")
	cmd.Flags().String("adapters-dir", "adapters", "Directory of YAML adapter definitions")
	cmd.Flags().Bool("raw", false, "Write raw pages instead of parsed entries")
	cmd.Flags().Bool("equality", false, "Match languages exactly instead of by substring")
	cmd.Flags().Bool("export", false, "Attach a lexeme export to each entry")
	cmd.Flags().Bool("strip-categories", false, "Remove [[Category:...]] links from text")
	cmd.Flags().Bool("stop-on-error", false, "Stop at the first page that fails")
	cmd.Flags().String("sqlite", "", "Also store entries in this SQLite database")
	cmd.Flags().Int("concurrency", 8, "Pages processed at once")
	cmd.Flags().BoolP("verbose", "v", false, "Log parser decisions")
	return cmd
}
