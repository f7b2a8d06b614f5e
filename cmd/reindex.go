package cmd

import (
	"context"
	"fmt"

	"roster-manager/feature/library"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reindexCmd rebuilds the library index from a filesystem scan.
var reindexCmd = &cobra.Command{
	Use:   "reindex [kind]",
	Short: "Rebuild the library index from the filesystem",
	Long: `Rebuilds the library index tables from a full filesystem scan.

The index is derived data: every row comes from a definition file on
disk, so a rebuild is always safe. Rows for vanished files are removed,
rows for new files are added, and user classification (source game,
style, tags) on surviving rows is preserved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := bootstrap()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			kind := library.Kind(args[0])
			if !library.ValidKind(kind) {
				return fmt.Errorf("unknown content kind %q", args[0])
			}
			if err := a.service.Reindex(ctx, kind); err != nil {
				return fmt.Errorf("reindex failed: %w", err)
			}
			a.logger.Info("Index rebuilt", zap.String("kind", args[0]))
			return nil
		}

		if err := a.service.ReindexAll(ctx); err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		a.logger.Info("Index rebuilt for all kinds")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(reindexCmd)
}
