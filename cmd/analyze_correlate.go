package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/correlate"
	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/runlog"
)

var (
	correlateSource string
	correlateTarget string
	correlateKind   string
)

var analyzeCorrelateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Discover proximity correlations",
	Long:  "Links every source-type entity to target-type entities within the configured max distance, scoring by proximity.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("correlate"); err != nil {
			return err
		}

		source, err := entity.ParseEntityType(correlateSource)
		if err != nil {
			return err
		}
		target, err := entity.ParseEntityType(correlateTarget)
		if err != nil {
			return err
		}

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		rec := runlog.NewRecorder(pool)
		run, err := rec.Start(ctx, "correlate")
		if err != nil {
			return err
		}

		store := entity.NewPostgresStore(pool)
		res, err := correlate.NewDiscoverer(store, cfg.Correlate).Discover(ctx, source, target, correlateKind)
		if err != nil {
			_ = rec.Fail(ctx, run, err)
			return eris.Wrap(err, "correlate")
		}
		if err := rec.Complete(ctx, run, res.Written); err != nil {
			return err
		}

		zap.L().Info("correlation discovery complete",
			zap.Int("sources", res.Sources),
			zap.Int("pairs", res.Pairs),
			zap.Int64("written", res.Written))
		return nil
	},
}

func init() {
	analyzeCorrelateCmd.Flags().StringVar(&correlateSource, "source", "surface_observation", "source entity type")
	analyzeCorrelateCmd.Flags().StringVar(&correlateTarget, "target", "boring", "target entity type")
	analyzeCorrelateCmd.Flags().StringVar(&correlateKind, "kind", "proximity", "correlation type tag written on each record")
	analyzeCmd.AddCommand(analyzeCorrelateCmd)
}
