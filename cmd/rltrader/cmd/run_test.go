package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/rltrader/config"
	"github.com/samuelfneumann/rltrader/experiment"
	"github.com/samuelfneumann/rltrader/experiment/tracker"
	"github.com/samuelfneumann/rltrader/logger"
)

// testConfig returns a small configuration over a generated price
// history in dir
func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()

	var csv strings.Builder
	csv.WriteString("AAA,BBB\n")
	for day := 0; day < 16; day++ {
		fmt.Fprintf(&csv, "%v,%v\n", 10+day%4, 20-day%3)
	}
	data := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(data, []byte(csv.String()), 0o644))

	cfg := config.Default()
	cfg.Data = data
	cfg.ModelsDir = filepath.Join(dir, "models")
	cfg.RewardsDir = filepath.Join(dir, "rewards")
	cfg.Episodes = 3
	cfg.InitialInvestment = 100
	cfg.Seed = 1
	cfg.Agent.BatchSize = 4
	cfg.Agent.BufferSize = 16
	cfg.Network.HiddenSizes = []int{4}
	return cfg
}

func TestRunTrainThenTest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.CheckpointEvery = 2

	var progress bytes.Buffer
	values, err := Run(context.Background(), Options{
		Config:   cfg,
		Mode:     experiment.Train,
		Logger:   zerolog.Nop(),
		Progress: &progress,
	})
	require.NoError(t, err)
	require.Len(t, values, 3)
	for _, v := range values {
		assert.Greater(t, v, 0.0)
	}
	assert.Contains(t, progress.String(), "3/3")

	assert.FileExists(t, filepath.Join(cfg.ModelsDir, ModelFile))
	assert.FileExists(t, filepath.Join(cfg.ModelsDir, ScalerFile))
	assert.FileExists(t, filepath.Join(cfg.ModelsDir, "dqn-000002.bin"))
	assert.FileExists(t, filepath.Join(cfg.RewardsDir, JournalFile))

	saved, err := tracker.LoadData(filepath.Join(cfg.RewardsDir, "train.bin"))
	require.NoError(t, err)
	assert.Equal(t, values, saved)

	cfg.Episodes = 2
	values, err = Run(context.Background(), Options{
		Config: cfg,
		Mode:   experiment.Test,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	require.Len(t, values, 2)

	saved, err = tracker.LoadData(filepath.Join(cfg.RewardsDir, "test.bin"))
	require.NoError(t, err)
	assert.Equal(t, values, saved)
}

func TestRunTestWithoutModel(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	_, err := Run(context.Background(), Options{
		Config: cfg,
		Mode:   experiment.Test,
		Logger: zerolog.Nop(),
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunMissingData(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Data = filepath.Join(t.TempDir(), "missing.csv")

	_, err := Run(context.Background(), Options{
		Config: cfg,
		Mode:   experiment.Train,
		Logger: zerolog.Nop(),
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, err := Run(ctx, Options{
		Config: cfg,
		Mode:   experiment.Train,
		Logger: zerolog.Nop(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, values)

	// Whatever was learned is still saved
	assert.FileExists(t, filepath.Join(cfg.ModelsDir, ModelFile))
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--mode", "train",
		"--episodes", "5",
		"--seed", "3",
		"--models-dir", "m",
	}))
	require.NoError(t, applyFlags(rootCmd, cfg))

	assert.Equal(t, 5, cfg.Episodes)
	assert.Equal(t, uint64(3), cfg.Seed)
	assert.Equal(t, "m", cfg.ModelsDir)

	// Flags not given keep the configured values
	assert.Equal(t, "rl_trader_rewards", cfg.RewardsDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rltrader.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"config", "init", "--output", path})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, path)

	rootCmd.SetArgs([]string{"config", "validate", "--file", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Configuration valid")
}

func TestExecuteReportsFailureOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	logger.SetGlobalLogger(zerolog.New(&buf))
	defer logger.SetGlobalLogger(prev)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	rootCmd.SetArgs([]string{"--mode", "bogus"})
	err := Execute()
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "bogus")
	assert.Contains(t, lines[0], `"level":"error"`)
	assert.Empty(t, out.String())
}
