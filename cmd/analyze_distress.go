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

var analyzeDistressCmd = &cobra.Command{
	Use:   "distress",
	Short: "Correlate pavement distress with subsurface conditions",
	Long:  "Groups distress observations by type and severity, scores each group by the consistency of nearby boring N-values, and writes per-pair correlation records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("correlate"); err != nil {
			return err
		}

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		rec := runlog.NewRecorder(pool)
		run, err := rec.Start(ctx, "distress_correlate")
		if err != nil {
			return err
		}

		store := entity.NewPostgresStore(pool)
		res, err := correlate.NewDiscoverer(store, cfg.Correlate).DiscoverDistressSubsurface(ctx)
		if err != nil {
			_ = rec.Fail(ctx, run, err)
			return eris.Wrap(err, "distress correlate")
		}
		if err := rec.Complete(ctx, run, res.Written); err != nil {
			return err
		}

		zap.L().Info("distress correlation complete",
			zap.Int("observations", res.Sources),
			zap.Int("pairs", res.Pairs),
			zap.Int64("written", res.Written))
		return nil
	},
}

func init() {
	analyzeCmd.AddCommand(analyzeDistressCmd)
}
