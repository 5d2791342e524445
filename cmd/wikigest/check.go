package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikigest/internal/fixture"
	"github.com/dgallion1/wikigest/internal/parser"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <fixture.json|dir>...",
		Short: "Check regression fixtures against the parser",
		Long: `Parse the text of every fixture and compare the tree with the one it
records. Directories are searched for *.json files. Mismatches print a
unified diff and the command exits with status 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strip, _ := cmd.Flags().GetBool("strip-categories")
			opts := parser.Options{StripCategories: strip}

			paths, err := fixturePaths(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range paths {
				res, err := fixture.CheckFile(path, opts)
				if err != nil {
					return err
				}
				if res.OK {
					fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("PASS"), path)
					continue
				}
				failed++
				fmt.Fprintf(out, "%s %s\n", ErrorStyle.Render("FAIL"), path)
				fmt.Fprint(out, colorDiff(res.Diff))
			}

			fmt.Fprintf(out, "%d fixtures, %d failed\n", len(paths), failed)
			if failed > 0 {
				return errMismatch
			}
			return nil
		},
	}
	cmd.Flags().Bool("strip-categories", false, "Parse with category stripping")
	return cmd
}

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <markup-file> <fixture.json>",
		Short: "Record the current parse of a markup file as a fixture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strip, _ := cmd.Flags().GetBool("strip-categories")
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read markup: %w", err)
			}
			if err := fixture.Record(args[1], string(text), parser.Options{StripCategories: strip}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("recorded"), args[1])
			return nil
		},
	}
	cmd.Flags().Bool("strip-categories", false, "Parse with category stripping")
	return cmd
}

// fixturePaths expands directories into the JSON files below them.
func fixturePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
