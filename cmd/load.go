package main

import "github.com/spf13/cobra"

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load entity data",
	Long:  "Bulk-load located entities from external files into the store.",
}

func init() { rootCmd.AddCommand(loadCmd) }
