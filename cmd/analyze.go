package main

import "github.com/spf13/cobra"

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Spatial analysis procedures",
	Long:  "Run correlation discovery, subsurface profile generation, and asset risk scoring.",
}

func init() { rootCmd.AddCommand(analyzeCmd) }
