// Package config loads run configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/delatour/stratgen/chains"
	"github.com/delatour/stratgen/logging"
	"github.com/delatour/stratgen/models"
	"github.com/delatour/stratgen/positions"
	"github.com/delatour/stratgen/scoring"
)

// Config is the full run configuration.
type Config struct {
	Underlying string `mapstructure:"underlying"`

	// ChainFile points at an ingested chain document; when empty and
	// Simulate is set, the chain is synthesized instead.
	ChainFile string            `mapstructure:"chain_file"`
	Simulate  *chains.SimConfig `mapstructure:"simulate"`

	// HistoryFile holds daily OHLC bars of the underlying; when set,
	// scenarios without a deviation get one estimated from realized
	// volatility over HistoryHorizon years.
	HistoryFile    string  `mapstructure:"history_file"`
	HistoryHorizon float64 `mapstructure:"history_horizon"`

	Generation positions.Config `mapstructure:"generation"`
	Scoring    scoring.Options  `mapstructure:"scoring"`

	// WeightSets enables multi-criteria consensus ranking when more than
	// one set is given.
	WeightSets []map[string]float64 `mapstructure:"weight_sets"`

	Output  string         `mapstructure:"output"`
	Logging logging.Config `mapstructure:"logging"`
	Slack   SlackConfig    `mapstructure:"slack"`
}

// SlackConfig enables posting the top of the ranking to a channel. The token
// comes from the environment, never the config file.
type SlackConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ChannelID string `mapstructure:"channel_id"`
	TopN      int    `mapstructure:"top_n"`
}

// Load reads the configuration file (stratgen.yaml in the working directory
// when path is empty) and applies STRATGEN_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stratgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stratgen")
	}
	v.SetEnvPrefix("STRATGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		// Defaults plus environment are a valid configuration.
	}

	// Unmarshal merges onto pre-populated values, so filter bounds not named
	// in the file keep their permissive defaults instead of collapsing to
	// zero.
	cfg := &Config{}
	cfg.Generation.Filters = models.DefaultFilters()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("underlying", "SIM")
	v.SetDefault("output", "results.json")

	v.SetDefault("history_horizon", 30.0/365.0)

	v.SetDefault("generation.max_legs", 2)
	v.SetDefault("generation.price_min", 50.0)
	v.SetDefault("generation.price_max", 150.0)
	v.SetDefault("generation.num_points", 512)
	v.SetDefault("generation.include_long", true)
	v.SetDefault("generation.include_short", true)
	v.SetDefault("generation.progress", true)

	v.SetDefault("scoring.top_n", 50)
	v.SetDefault("scoring.dedup", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)

	v.SetDefault("slack.top_n", 5)
}
