package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/risk"
)

var analyzeRiskCmd = &cobra.Command{
	Use:   "risk <asset-id> [asset-id...]",
	Short: "Score asset risk",
	Long:  "Computes the composite [0,1] risk score for each asset from condition, nearby active hazards, and recent emergency maintenance.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := entity.NewPostgresStore(pool)
		scorer := risk.NewScorer(store, cfg.Risk)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		for _, assetID := range args {
			assessment, err := scorer.Score(ctx, assetID)
			if err != nil {
				return eris.Wrapf(err, "risk score %s", assetID)
			}
			if err := enc.Encode(assessment); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	analyzeCmd.AddCommand(analyzeRiskCmd)
}
