// Package config holds the configuration of an rltrader run. A
// configuration starts from Default, is overlaid by an optional YAML
// file and then by RLTRADER_* environment variables, which may also be
// given in a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/rltrader/agent/nonlinear/discrete/deepq"
	"github.com/samuelfneumann/rltrader/initwfn"
	"github.com/samuelfneumann/rltrader/logger"
	"github.com/samuelfneumann/rltrader/network"
	"github.com/samuelfneumann/rltrader/solver"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "RLTRADER_"

// Config holds the configuration of a run
type Config struct {
	Data       string `yaml:"data"` // Price history CSV
	ModelsDir  string `yaml:"models_dir"`
	RewardsDir string `yaml:"rewards_dir"`

	Episodes          int     `yaml:"episodes"`
	InitialInvestment float64 `yaml:"initial_investment"`
	Seed              uint64  `yaml:"seed"`

	// Save a model checkpoint every CheckpointEvery training episodes,
	// 0 disables checkpointing
	CheckpointEvery int `yaml:"checkpoint_every"`

	// Address to serve Prometheus metrics on, empty to disable
	MetricsAddr string `yaml:"metrics_addr"`

	Agent   deepq.Config   `yaml:"agent"`
	Network network.Config `yaml:"network"`
	Log     logger.Config  `yaml:"log"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Data:              "aapl_msi_sbux.csv",
		ModelsDir:         "rl_trader_models",
		RewardsDir:        "rl_trader_rewards",
		Episodes:          2000,
		InitialInvestment: 20000,
		Seed:              0,
		Agent:             deepq.DefaultConfig(),
		Network: network.Config{
			HiddenSizes: []int{32},
			Activations: []*network.Activation{network.ReLU()},
			InitWFn:     initwfn.NewGlorotU(1.0),
			Solver:      solver.NewDefaultAdam(0.001),
		},
		Log: logger.Config{Level: "info"},
	}
}

// Load returns the default configuration overlaid by the YAML file at
// path, if path is not empty, and then by environment variables. A .env
// file in the working directory is loaded first if one exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load: read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("load: parse config file: %w", err)
		}
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration to path as YAML
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("saveToFile: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("saveToFile: %w", err)
	}
	return nil
}

// applyEnv overrides configuration fields with the environment
// variables found by lookup
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATA":         &c.Data,
		"MODELS_DIR":   &c.ModelsDir,
		"REWARDS_DIR":  &c.RewardsDir,
		"METRICS_ADDR": &c.MetricsAddr,
		"LOG_LEVEL":    &c.Log.Level,
	}
	for key, field := range strs {
		if value, ok := lookup(EnvPrefix + key); ok && value != "" {
			*field = value
		}
	}

	ints := map[string]*int{
		"EPISODES":         &c.Episodes,
		"CHECKPOINT_EVERY": &c.CheckpointEvery,
		"BATCH_SIZE":       &c.Agent.BatchSize,
		"BUFFER_SIZE":      &c.Agent.BufferSize,
	}
	for key, field := range ints {
		if value, ok := lookup(EnvPrefix + key); ok && value != "" {
			v, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("applyEnv: %v%v: %w", EnvPrefix, key, err)
			}
			*field = v
		}
	}

	floats := map[string]*float64{
		"INITIAL_INVESTMENT": &c.InitialInvestment,
		"GAMMA":              &c.Agent.Gamma,
	}
	for key, field := range floats {
		if value, ok := lookup(EnvPrefix + key); ok && value != "" {
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("applyEnv: %v%v: %w", EnvPrefix, key, err)
			}
			*field = v
		}
	}

	if value, ok := lookup(EnvPrefix + "SEED"); ok && value != "" {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("applyEnv: %vSEED: %w", EnvPrefix, err)
		}
		c.Seed = v
	}

	if value, ok := lookup(EnvPrefix + "LOG_PRETTY"); ok && value != "" {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("applyEnv: %vLOG_PRETTY: %w", EnvPrefix, err)
		}
		c.Log.Pretty = v
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data == "" {
		return fmt.Errorf("validate: data is required")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("validate: models_dir is required")
	}
	if c.RewardsDir == "" {
		return fmt.Errorf("validate: rewards_dir is required")
	}
	if c.Episodes < 1 {
		return fmt.Errorf("validate: episodes must be positive \n\thave(%v)",
			c.Episodes)
	}
	if c.InitialInvestment < 0 {
		return fmt.Errorf("validate: initial_investment must be "+
			"non-negative \n\thave(%v)", c.InitialInvestment)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("validate: checkpoint_every must be "+
			"non-negative \n\thave(%v)", c.CheckpointEvery)
	}

	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %w", err)
	}
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("validate: network: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("validate: log: %w", err)
	}
	return nil
}
