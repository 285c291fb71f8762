package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pagecms "github.com/goliatone/go-pagecms"
	"github.com/goliatone/go-pagecms/pkg/fields"
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Replace the stored document with a JSON or YAML file or URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	doc, err := pagecms.LoadDocument(ctx, args[0])
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := pagecms.Import(ctx, st, doc); err != nil {
		return err
	}
	pages := fields.Pages(&doc)
	logger.Info("content imported", zap.String("source", args[0]), zap.String("store", cfg.Store.Kind), zap.Int("pages", len(pages)))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d page(s)) into the %s store\n", args[0], len(pages), cfg.Store.Kind)
	return nil
}
