package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/01moynul/renovation-mindmap/internal/database"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the nodes table as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := store.NewNodeStore(db).ListRecords(ctx)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := mindmap.WriteCSV(w, records); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			a.log.Info("Export finished", "rows", len(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL for a driver",
		// Needs no configuration or database.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver != "mysql" && driver != "sqlite3" {
				return fmt.Errorf("unknown --driver %q", driver)
			}
			for _, stmt := range database.Schema(driver) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "mysql", "mysql or sqlite3")
	return cmd
}

func newPremiumCmd(a *app) *cobra.Command {
	var (
		username string
		revoke   bool
	)
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Grant or revoke premium access for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.NewUserStore(db).SetPremium(ctx, username, !revoke); err != nil {
				return fmt.Errorf("update %s: %w", username, err)
			}
			a.log.Info("Premium updated", "username", username, "premium", !revoke)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "User to update (required)")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove premium instead of granting it")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
