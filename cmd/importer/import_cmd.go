package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
	"github.com/01moynul/renovation-mindmap/internal/store"
)

type importOptions struct {
	file    string
	replace bool
	dryRun  bool
}

func newCSVCmd(a *app) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Import nodes from a CSV export (UTF-8 or GBK)",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readCSVFile(opts.file)
			if err != nil {
				return err
			}
			return a.runImport(cmd.Context(), records, opts)
		},
	}
	bindImportFlags(cmd, &opts)
	return cmd
}

func newMarkdownCmd(a *app) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "md",
		Short: "Import nodes from a Markdown outline (headings and '-' detail lines)",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readMarkdownFile(opts.file)
			if err != nil {
				return err
			}
			return a.runImport(cmd.Context(), records, opts)
		},
	}
	bindImportFlags(cmd, &opts)
	return cmd
}

func bindImportFlags(cmd *cobra.Command, opts *importOptions) {
	cmd.Flags().StringVar(&opts.file, "file", "", "Input file (required)")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Delete existing nodes before importing")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Check the input builds a tree without writing")
	_ = cmd.MarkFlagRequired("file")
}

func readCSVFile(path string) ([]models.FlatRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return mindmap.ReadCSV(f)
}

func readMarkdownFile(path string) ([]models.FlatRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	text, err := mindmap.DecodeText(data)
	if err != nil {
		return nil, err
	}
	root, err := mindmap.ParseMarkdown(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return mindmap.OutlineRecords(root), nil
}

// checkTree assembles records the way the API will and refuses input that
// has no root. Orphans and skipped rows are only reported.
func checkTree(log *logger.Logger, records []models.FlatRecord) error {
	res := mindmap.Assemble(records)
	if res.Root == nil {
		return fmt.Errorf("input has no root row (parent_id empty)")
	}
	log.Info("Checked input",
		"rows", len(records),
		"nodes", len(mindmap.NodeIDs(res.Root)),
		"root", res.Root.Name,
		"orphans", len(res.Orphans),
		"skipped", res.Skipped,
	)
	return nil
}

func (a *app) runImport(ctx context.Context, records []models.FlatRecord, opts importOptions) error {
	// 1. --- Validate ---
	if err := checkTree(a.log, records); err != nil {
		return err
	}
	if opts.dryRun {
		a.log.Info("Dry run, nothing written")
		return nil
	}

	// 2. --- Write ---
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := store.NewNodeStore(db).InsertRecords(ctx, records, opts.replace)
	if err != nil {
		return err
	}
	a.log.Info("Import finished", "inserted", n, "replace", opts.replace)
	return nil
}
