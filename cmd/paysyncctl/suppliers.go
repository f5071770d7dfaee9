package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erp/paysync/internal/bootstrap"
)

func suppliersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "suppliers",
		Aliases: []string{"counterparties"},
		Short:   "Manage the tracked counterparties",
	}
	cmd.AddCommand(suppliersListCmd())
	cmd.AddCommand(suppliersImportCmd())
	return cmd
}

func suppliersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked counterparties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				items, err := app.Counterparties.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No counterparties tracked")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME")
				for _, c := range items {
					fmt.Fprintf(tw, "%s\t%s\n", c.Code, c.Name)
				}
				return tw.Flush()
			})
		},
	}
}

func suppliersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import counterparties from a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				result, err := app.Counterparties.Import(cmd.Context(), filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added:      %d\n", result.Added)
				fmt.Fprintf(out, "Duplicates: %d\n", result.Duplicates)
				for _, s := range result.Skipped {
					fmt.Fprintf(out, "Skipped line %d: %s\n", s.Row, s.Message)
				}
				return nil
			})
		},
	}
}
