package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/render"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse one piece of wiki markup",
		Long: `Parse wiki markup from a file, or from stdin when the file is "-" or
missing, and print the property tree as JSON.

Example:
  wikigest parse haus.wiki
  echo '== Foo ==' | wikigest parse --html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			strip, _ := cmd.Flags().GetBool("strip-categories")
			asHTML, _ := cmd.Flags().GetBool("html")
			asMarkdown, _ := cmd.Flags().GetBool("markdown")
			title, _ := cmd.Flags().GetString("title")
			if cmd.Flags().Changed("max-depth") {
				cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			tree, err := parser.ParseReader(in, parser.Options{
				StripCategories: strip,
				MaxDepth:        cfg.MaxDepth,
				Debug:           cfg.Debug,
				Logger:          newLogger(cmd, cfg),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asHTML:
				html, err := render.HTML(title, tree)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, html)
				return err
			case asMarkdown:
				_, err = io.WriteString(out, render.Markdown(title, tree))
				return err
			default:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(tree)
			}
		},
	}

	cmd.Flags().Bool("strip-categories", false, "Remove [[Category:...]] links from text")
	cmd.Flags().Bool("html", false, "Print an HTML preview instead of JSON")
	cmd.Flags().Bool("markdown", false, "Print a Markdown outline instead of JSON")
	cmd.Flags().String("title", "", "Heading for --html and --markdown output")
	cmd.Flags().Int("max-depth", parser.DefaultMaxDepth, "Deepest nesting before text is kept as is")
	return cmd
}
