package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
)

var (
	fieldsCategory string
	fieldsPath     string
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List pages with editable text",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <page>",
	Short: "List the editable fields of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runFields,
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsCategory, "category", "", "Only show these categories (comma separated)")
	fieldsCmd.Flags().StringVar(&fieldsPath, "path", "", "Only show fields under these path prefixes (comma separated)")
}

func runPages(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	pages := fields.Pages(&doc)
	if pages == nil {
		pages = []string{}
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, map[string]any{"pages": pages})
	}
	for _, page := range pages {
		fmt.Fprintln(out, page)
	}
	return nil
}

func runFields(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap := store.Snapshot(ctx, st, args[0], flattenOptions()...)
	if snap.Status == store.StatusUnavailable {
		return fmt.Errorf("load content: %w", snap.Err)
	}
	page := render.NewPage(snap, nil)
	render.ApplySubset(&page, render.FieldSubset{
		Categories: render.ParseTokenList(fieldsCategory),
		Paths:      render.ParseTokenList(fieldsPath),
	})

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, page.Fields)
	}
	if len(page.Fields) == 0 {
		fmt.Fprintf(out, "Page %q has no editable text.\n", args[0])
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tCATEGORY\tLABEL\tVALUE")
	for _, field := range page.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%q\n", field.Path, field.Category, field.Label, field.Value)
	}
	return tw.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
