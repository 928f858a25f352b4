package main

import "github.com/spf13/cobra"

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Grid statistics",
	Long:  "Tessellate the configured region into square cells and maintain per-cell entity statistics.",
}

func init() { rootCmd.AddCommand(gridCmd) }
