package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gms-foundation/gms-cli/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent analysis runs",
	Long:  "Shows the most recent analysis runs with status, record counts, and timing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := gmsPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		runs, err := runlog.NewRecorder(pool).Recent(ctx, runsLimit)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-20s %-10s %10s  %s\n", "RUN", "KIND", "STATUS", "RECORDS", "STARTED")
		for _, r := range runs {
			fmt.Printf("%-36s %-20s %-10s %10d  %s\n",
				r.ID, r.Kind, r.Status, r.RecordCount, r.StartedAt.UTC().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
