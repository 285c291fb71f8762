package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pagecms "github.com/goliatone/go-pagecms"
	"github.com/goliatone/go-pagecms/internal/config"
	"github.com/goliatone/go-pagecms/internal/logging"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/store"
)

var (
	// Global flags
	configPath string
	storeKind  string
	storePath  string
	storeURL   string
	verbose    bool
	jsonOut    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pagecms",
	Short: "Inline text editing over a JSON content document",
	Long: `pagecms lists the editable text of a page, buffers edits in a session and
writes them back to the content store one field at a time.

The store is a JSON file by default; SQLite, a remote pagecms server and an
in-memory document are also supported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Store kind: file, sqlite, remote or memory")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Content file or SQLite database path")
	rootCmd.PersistentFlags().StringVar(&storeURL, "store-url", "", "Base URL of a remote pagecms API")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings resolves the configuration (file, environment, then flags)
// and builds the logger.
func loadSettings() error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storeKind != "" {
		loaded.Store.Kind = storeKind
	}
	if storePath != "" {
		loaded.Store.Path = storePath
	}
	if storeURL != "" {
		loaded.Store.URL = storeURL
	}
	if verbose {
		loaded.LogLevel = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func openStore(ctx context.Context) (store.Store, func(), error) {
	st, err := pagecms.OpenStore(ctx, cfg.Store, pagecms.WithStoreLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := pagecms.Close(st); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}, nil
}

func flattenOptions() []fields.Option {
	return []fields.Option{fields.WithMaxDepth(cfg.Editor.MaxDepth)}
}
