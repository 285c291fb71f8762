package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagecms/internal/api"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/renderers/html"
	"github.com/goliatone/go-pagecms/pkg/renderers/tui"
	"github.com/goliatone/go-pagecms/pkg/store"
)

var (
	renderName   string
	renderOutput string
	renderAction string
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render <page>",
	Short: "Render a page's edit form",
	Long: `Render writes the edit form of a page. The html renderer emits the admin
form markup; the tui renderer prompts for every field and prints the changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderName, "renderer", html.Name, "Renderer to use: html or tui")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (stdout if empty)")
	renderCmd.Flags().StringVar(&renderAction, "action", "", "Form action URL for the html renderer")
	renderCmd.Flags().StringVar(&renderFormat, "format", string(tui.OutputFormatPrettyText), "Output format of the tui renderer: json, form or pretty")
}

func newRenderRegistry(cmd *cobra.Command) (*render.Registry, error) {
	registry := render.NewRegistry()
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, err
	}
	tuiRenderer, err := tui.New(
		tui.WithOutput(cmd.OutOrStdout()),
		tui.WithOutputFormat(tui.OutputFormat(renderFormat)),
		tui.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(htmlRenderer); err != nil {
		return nil, err
	}
	if err := registry.Register(tuiRenderer); err != nil {
		return nil, err
	}
	return registry, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	registry, err := newRenderRegistry(cmd)
	if err != nil {
		return err
	}
	renderer, err := registry.Resolve(renderName)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	themeCfg, err := api.DefaultTheme(cfg.Theme)
	if err != nil {
		return err
	}
	snap := store.Snapshot(ctx, st, args[0], flattenOptions()...)
	out, err := renderer.Render(ctx, render.NewPage(snap, nil), render.Options{
		Action: renderAction,
		Theme:  themeCfg,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", args[0], err)
	}

	if renderOutput != "" {
		if err := os.WriteFile(renderOutput, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Form written to %s\n", renderOutput)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
