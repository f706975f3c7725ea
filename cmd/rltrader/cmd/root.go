// Package cmd implements the rltrader command line interface
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/rltrader/config"
	"github.com/samuelfneumann/rltrader/experiment"
	"github.com/samuelfneumann/rltrader/logger"
)

var rootCmd = &cobra.Command{
	Use:   "rltrader",
	Short: "Train and test a deep Q-learning stock trader",
	Long: `rltrader trains a deep Q-network to trade a portfolio of stocks over a
history of daily prices, and tests the trained network on unseen prices.

The first half of the price history is used for training and the second
half for testing. Training saves the network weights and the observation
scaler to the models directory, which testing loads back. The end of
episode portfolio values of each run are saved to the rewards directory.

Example:
  rltrader --mode train --data aapl_msi_sbux.csv
  rltrader --mode test --data aapl_msi_sbux.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var (
	rootMode     string
	rootConfig   string
	rootProgress bool

	// Overrides of the configuration
	rootData            string
	rootModelsDir       string
	rootRewardsDir      string
	rootEpisodes        int
	rootSeed            uint64
	rootLogLevel        string
	rootPretty          bool
	rootMetricsAddr     string
	rootCheckpointEvery int
)

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("rltrader failed")
	}
	return err
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&rootMode, "mode", "m", "", `either "train" or "test" (required)`)
	f.StringVarP(&rootConfig, "config", "c", "", "path to YAML config file")
	f.BoolVar(&rootProgress, "progress", false, "display a progress bar")

	f.StringVarP(&rootData, "data", "d", "", "path to price history CSV")
	f.StringVar(&rootModelsDir, "models-dir", "", "directory of saved models")
	f.StringVar(&rootRewardsDir, "rewards-dir", "", "directory of saved portfolio values")
	f.IntVarP(&rootEpisodes, "episodes", "e", 0, "number of episodes to run")
	f.Uint64Var(&rootSeed, "seed", 0, "random seed")
	f.StringVar(&rootLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.BoolVar(&rootPretty, "pretty", false, "pretty console logging")
	f.StringVar(&rootMetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on")
	f.IntVar(&rootCheckpointEvery, "checkpoint-every", 0, "checkpoint the model every N training episodes")

	rootCmd.MarkFlagRequired("mode")
}

func runRoot(cmd *cobra.Command, args []string) error {
	mode, err := experiment.ParseMode(rootMode)
	if err != nil {
		return err
	}

	cfg, err := config.Load(rootConfig)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(l)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer cancel()

	opts := Options{Config: cfg, Mode: mode, Logger: l}
	if rootProgress {
		opts.Progress = os.Stderr
	}

	if _, err := Run(ctx, opts); err != nil {
		return fmt.Errorf("%v: %w", mode, err)
	}
	return nil
}

// applyFlags overrides the configuration with the flags set on the
// command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.Data = rootData
	}
	if f.Changed("models-dir") {
		cfg.ModelsDir = rootModelsDir
	}
	if f.Changed("rewards-dir") {
		cfg.RewardsDir = rootRewardsDir
	}
	if f.Changed("episodes") {
		cfg.Episodes = rootEpisodes
	}
	if f.Changed("seed") {
		cfg.Seed = rootSeed
	}
	if f.Changed("log-level") {
		cfg.Log.Level = rootLogLevel
	}
	if f.Changed("pretty") {
		cfg.Log.Pretty = rootPretty
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = rootMetricsAddr
	}
	if f.Changed("checkpoint-every") {
		cfg.CheckpointEvery = rootCheckpointEvery
	}
	return cfg.Validate()
}
