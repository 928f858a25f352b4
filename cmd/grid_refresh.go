package main

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/grid"
	"github.com/gms-foundation/gms-cli/internal/runlog"
)

var gridCronSpec string

var gridRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute all grid cell statistics",
	Long:  "Recomputes statistics for every cell of the configured tessellation and persists them. With --cron, keeps running and refreshes on the given schedule.",
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
		agg := grid.NewAggregator(store, cfg.Grid)
		rec := runlog.NewRecorder(pool)

		refresh := func() error {
			run, err := rec.Start(ctx, "grid_refresh")
			if err != nil {
				return err
			}
			snap, err := agg.Refresh(ctx)
			if err != nil {
				_ = rec.Fail(ctx, run, err)
				return eris.Wrap(err, "grid refresh")
			}
			return rec.Complete(ctx, run, int64(len(snap.Cells)))
		}

		if gridCronSpec == "" {
			return refresh()
		}

		c := cron.New()
		if _, err := c.AddFunc(gridCronSpec, func() {
			if err := refresh(); err != nil {
				zap.L().Error("scheduled grid refresh failed", zap.Error(err))
			}
		}); err != nil {
			return eris.Wrapf(err, "bad cron spec %q", gridCronSpec)
		}

		// Run once immediately, then on schedule until interrupted.
		if err := refresh(); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()

		zap.L().Info("grid refresh scheduled", zap.String("cron", gridCronSpec))
		<-ctx.Done()
		return nil
	},
}

func init() {
	gridRefreshCmd.Flags().StringVar(&gridCronSpec, "cron", "", "cron schedule for periodic refresh (e.g. \"0 3 * * *\")")
	gridCmd.AddCommand(gridRefreshCmd)
}
