// Command importer loads mind map rows into the nodes table from a CSV export
// or a Markdown outline, and manages the schema and premium accounts.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/01moynul/renovation-mindmap/internal/config"
	"github.com/01moynul/renovation-mindmap/internal/database"
	"github.com/01moynul/renovation-mindmap/internal/logger"
)

type app struct {
	cfg *config.Config
	log *logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "importer",
		Short:         "Import and export renovation mind map data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, envLoaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			if !envLoaded {
				log.Debug("No .env file, using process environment")
			}
			a.cfg, a.log = cfg, log.With("cmd", cmd.Name())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	root.AddCommand(
		newCSVCmd(a),
		newMarkdownCmd(a),
		newExportCmd(a),
		newSchemaCmd(),
		newPremiumCmd(a),
	)
	return root
}

// openDB connects with the configured driver and makes sure the tables exist.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	if a.cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required for this command")
	}
	db, err := database.Open(ctx, a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, a.cfg.DBDriver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
