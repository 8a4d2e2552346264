package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridsim/bevflow/core/metrics"
	"github.com/gridsim/bevflow/core/scenario"
	"github.com/gridsim/bevflow/infra/mqtt"
)

// Config is the root configuration of a pipeline run.
type Config struct {
	Horizon     HorizonConfig     `json:"horizon"`
	Mobility    MobilityConfig    `json:"mobility"`
	Consumption ConsumptionConfig `json:"consumption"`
	Charging    ChargingConfig    `json:"charging"`
	Scenario    scenario.Config   `json:"scenario"`
	Database    DatabaseConfig    `json:"database"`
	Results     ResultsConfig     `json:"results"`
	Metrics     metrics.Config    `json:"metrics"`
	MQTT        mqtt.Config       `json:"mqtt"`
}

// Load reads the configuration from a YAML or JSON file with optional
// K_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset sections.
func (c *Config) SetDefaults() {
	c.Horizon.SetDefaults()
	c.Mobility.SetDefaults()
	c.Consumption.SetDefaults()
	c.Charging.SetDefaults()
	c.Scenario.SetDefaults()
	c.Database.SetDefaults()
	c.Results.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Horizon.Validate(); err != nil {
		return err
	}
	if err := c.Mobility.Validate(); err != nil {
		return err
	}
	if err := c.Consumption.Validate(); err != nil {
		return err
	}
	if err := c.Charging.Validate(); err != nil {
		return err
	}
	return c.Scenario.Validate()
}
