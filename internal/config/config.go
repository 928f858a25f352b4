package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Correlate CorrelateConfig `yaml:"correlate" mapstructure:"correlate"`
	Grid      GridConfig      `yaml:"grid" mapstructure:"grid"`
	Risk      RiskConfig      `yaml:"risk" mapstructure:"risk"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the PostGIS backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// CorrelateConfig configures the correlation discoverer.
type CorrelateConfig struct {
	MaxDistanceM float64 `yaml:"max_distance_m" mapstructure:"max_distance_m"`
	MinGroupSize int     `yaml:"min_group_size" mapstructure:"min_group_size"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	StoreQPS     float64 `yaml:"store_qps" mapstructure:"store_qps"`
}

// GridConfig configures the grid aggregator.
type GridConfig struct {
	CellKM float64 `yaml:"cell_km" mapstructure:"cell_km"`
	MinLng float64 `yaml:"min_lng" mapstructure:"min_lng"`
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLng float64 `yaml:"max_lng" mapstructure:"max_lng"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
}

// RiskConfig configures the composite risk scorer.
type RiskConfig struct {
	HazardRadiusM      float64 `yaml:"hazard_radius_m" mapstructure:"hazard_radius_m"`
	HazardIncrement    float64 `yaml:"hazard_increment" mapstructure:"hazard_increment"`
	EmergencyRadiusM   float64 `yaml:"emergency_radius_m" mapstructure:"emergency_radius_m"`
	EmergencyIncrement float64 `yaml:"emergency_increment" mapstructure:"emergency_increment"`
	EmergencyWindowYrs int     `yaml:"emergency_window_years" mapstructure:"emergency_window_years"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("correlate.max_distance_m", 100.0)
	v.SetDefault("correlate.min_group_size", 5)
	v.SetDefault("correlate.concurrency", 4)
	v.SetDefault("correlate.store_qps", 50.0)
	v.SetDefault("grid.cell_km", 1.0)
	v.SetDefault("risk.hazard_radius_m", 100.0)
	v.SetDefault("risk.hazard_increment", 0.05)
	v.SetDefault("risk.emergency_radius_m", 50.0)
	v.SetDefault("risk.emergency_increment", 0.02)
	v.SetDefault("risk.emergency_window_years", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the named subsystem has the configuration it needs.
func (c *Config) Validate(subsystem string) error {
	switch subsystem {
	case "store":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required (set GMS_STORE_DATABASE_URL)")
		}
	case "grid":
		if c.Grid.CellKM <= 0 {
			return eris.New("config: grid.cell_km must be positive")
		}
	case "correlate":
		if c.Correlate.MaxDistanceM <= 0 {
			return eris.New("config: correlate.max_distance_m must be positive")
		}
	default:
		return eris.Errorf("config: unknown subsystem %q", subsystem)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
