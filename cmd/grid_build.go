package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/grid"
)

var gridBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Create the grid tessellation",
	Long:  "Tessellates the configured bounding region into square cells and persists them with zero statistics. Run refresh to fill the numbers in.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("grid"); err != nil {
			return err
		}

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := entity.NewPostgresStore(pool)
		n, err := grid.NewAggregator(store, cfg.Grid).Build(ctx)
		if err != nil {
			return eris.Wrap(err, "grid build")
		}

		zap.L().Info("grid tessellation created", zap.Int("cells", n))
		return nil
	},
}

func init() {
	gridCmd.AddCommand(gridBuildCmd)
}
