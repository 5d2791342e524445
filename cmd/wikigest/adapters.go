package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wikigest/internal/adapter"
)

func adaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List language boundary adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("adapters-dir")
			registry := adapter.NewRegistry()
			if err := registry.LoadDirectory(dir); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range registry.List() {
				fmt.Fprintf(out, "%-16s %s\n", TitleStyle.Render(a.Name()), DimStyle.Render(a.LanguageMatch().String()))
			}
			return nil
		},
	}
	cmd.Flags().String("adapters-dir", "adapters", "Directory of YAML adapter definitions")
	return cmd
}
