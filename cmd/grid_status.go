package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var gridStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show grid statistics summary",
	Long:  "Displays cell counts, aggregate totals, and the last refresh time of the persisted grid.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		var (
			cells       int
			borings     int
			hazards     int
			cost        float64
			refreshedAt *time.Time
		)
		err = pool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COALESCE(SUM(boring_count), 0),
			       COALESCE(SUM(hazard_count), 0),
			       COALESCE(SUM(total_maintenance_cost), 0),
			       MAX(refreshed_at)
			FROM gms.grid_statistics`).
			Scan(&cells, &borings, &hazards, &cost, &refreshedAt)
		if err != nil {
			return eris.Wrap(err, "grid status")
		}

		fmt.Printf("Cells:              %d\n", cells)
		fmt.Printf("Borings counted:    %d\n", borings)
		fmt.Printf("Hazards counted:    %d\n", hazards)
		fmt.Printf("Maintenance cost:   $%.2f\n", cost)
		if refreshedAt != nil {
			fmt.Printf("Last refresh:       %s\n", refreshedAt.UTC().Format(time.RFC3339))
		} else {
			fmt.Println("Last refresh:       never")
		}
		return nil
	},
}

func init() {
	gridCmd.AddCommand(gridStatusCmd)
}
