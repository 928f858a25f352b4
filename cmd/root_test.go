package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"migrate", "analyze", "grid", "load", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "gms-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range analyzeCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"correlate", "distress", "profile", "risk"} {
		assert.True(t, names[name], "expected analyze subcommand %q not found", name)
	}
}

func TestCorrelateCommand_Flags(t *testing.T) {
	flag := analyzeCorrelateCmd.Flags().Lookup("source")
	require.NotNil(t, flag, "correlate command should have --source flag")
	assert.Equal(t, "surface_observation", flag.DefValue)

	flag = analyzeCorrelateCmd.Flags().Lookup("target")
	require.NotNil(t, flag, "correlate command should have --target flag")
	assert.Equal(t, "boring", flag.DefValue)
}

func TestGridRefreshCommand_Flags(t *testing.T) {
	flag := gridRefreshCmd.Flags().Lookup("cron")
	require.NotNil(t, flag, "grid refresh command should have --cron flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestLoadShapefileCommand_Flags(t *testing.T) {
	flag := loadShapefileCmd.Flags().Lookup("type")
	require.NotNil(t, flag, "load shapefile command should have --type flag")
	assert.Equal(t, "hazard", flag.DefValue)
}
