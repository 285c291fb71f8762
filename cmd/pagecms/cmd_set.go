package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/content"
)

var setCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Write one field straight to the store",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]
	if err := content.ValidatePath(path); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.UpdateField(ctx, path, value); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	logger.Debug("field written", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
	return nil
}
