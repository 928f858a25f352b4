package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Correlate.MaxDistanceM != 100.0 {
		t.Errorf("expected default max_distance_m 100, got %f", cfg.Correlate.MaxDistanceM)
	}
	if cfg.Correlate.MinGroupSize != 5 {
		t.Errorf("expected default min_group_size 5, got %d", cfg.Correlate.MinGroupSize)
	}
	if cfg.Grid.CellKM != 1.0 {
		t.Errorf("expected default cell_km 1.0, got %f", cfg.Grid.CellKM)
	}
	if cfg.Risk.HazardRadiusM != 100.0 {
		t.Errorf("expected default hazard_radius_m 100, got %f", cfg.Risk.HazardRadiusM)
	}
	if cfg.Risk.EmergencyWindowYrs != 2 {
		t.Errorf("expected default emergency_window_years 2, got %d", cfg.Risk.EmergencyWindowYrs)
	}
}

func TestValidate_Store(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate("store"); err == nil {
		t.Fatal("expected error for empty database_url")
	}
	cfg.Store.DatabaseURL = "postgres://localhost/gms"
	if err := cfg.Validate("store"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Grid(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate("grid"); err == nil {
		t.Fatal("expected error for zero cell_km")
	}
	cfg.Grid.CellKM = 0.5
	if err := cfg.Validate("grid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Unknown(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate("nope"); err == nil {
		t.Fatal("expected error for unknown subsystem")
	}
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
