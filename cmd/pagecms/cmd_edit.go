package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/preview"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/renderers/tui"
	"github.com/goliatone/go-pagecms/pkg/store"
)

var editCmd = &cobra.Command{
	Use:   "edit <page>",
	Short: "Edit a page interactively in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	pageID := args[0]
	ctx := commandContext(cmd)
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap := store.Snapshot(ctx, st, pageID, flattenOptions()...)

	opts := []editor.Option{editor.WithPage(pageID), editor.WithLogger(logger.Named("editor"))}
	if cfg.Editor.SanitizeValues {
		opts = append(opts, editor.WithValueFilter(func(_, value string) string {
			return preview.Plain(value)
		}))
	}
	sess, err := editor.New(st, opts...)
	if err != nil {
		return err
	}

	renderer, err := tui.New(
		tui.WithOutput(cmd.OutOrStdout()),
		tui.WithLogger(logger),
		tui.WithTheme(tui.Theme{InfoPrefix: "› ", ErrorPrefix: "! "}),
	)
	if err != nil {
		return err
	}

	result, err := renderer.Edit(ctx, sess, render.NewPage(snap, sess))
	if err != nil {
		return err
	}
	if len(result.Written) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d field(s) to %s.\n", len(result.Written), pageID)
	}
	return nil
}
