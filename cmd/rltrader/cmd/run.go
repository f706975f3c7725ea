package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/rltrader/agent/nonlinear/discrete/deepq"
	"github.com/samuelfneumann/rltrader/config"
	"github.com/samuelfneumann/rltrader/environment"
	"github.com/samuelfneumann/rltrader/environment/market"
	"github.com/samuelfneumann/rltrader/experiment"
	"github.com/samuelfneumann/rltrader/experiment/checkpointer"
	"github.com/samuelfneumann/rltrader/experiment/tracker"
	"github.com/samuelfneumann/rltrader/network"
	"github.com/samuelfneumann/rltrader/scaler"
	"github.com/samuelfneumann/rltrader/utils/progressbar"
)

// Names of the files saved in the models and rewards directories
const (
	ModelFile   = "dqn.bin"
	ScalerFile  = "scaler.msgpack"
	JournalFile = "journal.sqlite"
)

// Options configures a single Run
type Options struct {
	Config *config.Config
	Mode   experiment.Mode
	Logger zerolog.Logger

	// Progress receives a progress bar over episodes if not nil
	Progress io.Writer
}

// Run trains or tests a deep Q-learning trader as configured, returning
// the portfolio value at the end of each episode.
//
// In Train mode, the market is built on the first half of the price
// history, the observation scaler is fit on a random episode in that
// market, and the network and scaler are saved to the models directory
// after all episodes. In Test mode, the market is built on the second
// half of the price history and the saved network and scaler are loaded
// back. The agent then acts with a small fixed exploration rate and
// never learns.
//
// If ctx is cancelled between episodes, data gathered so far is still
// saved and the context's error is returned.
func Run(ctx context.Context, opts Options) ([]float64, error) {
	cfg := opts.Config
	mode := opts.Mode
	log := opts.Logger.With().Str("component", "run").Logger()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	// Create required directories
	for _, dir := range []string{cfg.ModelsDir, cfg.RewardsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
	}
	modelFile := filepath.Join(cfg.ModelsDir, ModelFile)
	scalerFile := filepath.Join(cfg.ModelsDir, ScalerFile)

	// Get the time series and split it into train and test data
	prices, err := market.LoadCSVFile(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	trainData, testData, err := prices.Split()
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	log.Info().
		Str("data", cfg.Data).
		Strs("symbols", prices.Symbols).
		Int("days", trainData.RawMatrix().Rows+testData.RawMatrix().Rows).
		Msg("loaded prices")

	rng := rand.New(rand.NewSource(cfg.Seed))

	env, _, err := market.New(trainData, cfg.InitialInvestment)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	var s *scaler.Standard
	switch mode {
	case experiment.Train:
		actions, err := environment.NewUniformActions(env.ActionSpec(),
			rng.Uint64())
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		s, err = scaler.FitEnvironment(env, actions)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}

	case experiment.Test:
		s = scaler.NewStandard()
		if err := s.Load(scalerFile); err != nil {
			return nil, fmt.Errorf("run: load scaler, train first: %w", err)
		}
		env, _, err = market.New(testData, cfg.InitialInvestment)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}

	default:
		return nil, fmt.Errorf("run: unknown mode %q", mode)
	}

	net, err := network.NewMLP(env.ObservationSpec().Features(),
		env.ActionSpec().NumActions(), cfg.Agent.BatchSize, cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if mode == experiment.Test {
		if err := net.Load(modelFile); err != nil {
			return nil, fmt.Errorf("run: load model, train first: %w", err)
		}
	}

	agent, err := deepq.New(env, net, cfg.Agent, rng.Uint64())
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	// Trackers
	trackers := []tracker.Tracker{
		tracker.NewValue(filepath.Join(cfg.RewardsDir, string(mode)+".bin")),
	}
	journal, err := tracker.NewJournal(filepath.Join(cfg.RewardsDir,
		JournalFile), string(mode))
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	defer journal.Close()
	trackers = append(trackers, journal)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics, err := tracker.NewMetrics(reg, string(mode))
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		trackers = append(trackers, metrics)

		stop := serveMetrics(cfg.MetricsAddr, reg, log)
		defer stop()
	}

	if opts.Progress != nil {
		bar := progressbar.NewProgressBar(opts.Progress, 50, cfg.Episodes,
			time.Second)
		bar.Display()
		defer bar.Close()
		trackers = append(trackers, progress{bar})
	}

	// Checkpointers
	var checkpointers []checkpointer.Checkpointer
	if cfg.CheckpointEvery > 0 {
		c, err := checkpointer.NewNEpisode(cfg.CheckpointEvery, net,
			checkpointer.EpisodeFilename(cfg.ModelsDir, "dqn", ".bin"))
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		checkpointers = append(checkpointers, c)
	}

	e, err := experiment.NewOnline(env, agent, s, mode, opts.Logger,
		trackers, checkpointers)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	log.Info().
		Str("mode", string(mode)).
		Str("run_id", journal.RunID()).
		Int("episodes", cfg.Episodes).
		Msg("starting run")

	values, runErr := e.RunContext(ctx, cfg.Episodes)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return values, fmt.Errorf("run: %w", runErr)
	}

	if err := e.Save(); err != nil {
		return values, fmt.Errorf("run: %w", err)
	}

	// Save the weights and scaler when we are done training
	if mode == experiment.Train {
		if err := net.Save(modelFile); err != nil {
			return values, fmt.Errorf("run: %w", err)
		}
		if err := s.Save(scalerFile); err != nil {
			return values, fmt.Errorf("run: %w", err)
		}
		log.Info().
			Str("model", modelFile).
			Str("scaler", scalerFile).
			Msg("saved model")
	}

	if runErr != nil {
		log.Warn().Int("completed", len(values)).Msg("run interrupted")
		return values, fmt.Errorf("run: %w", runErr)
	}
	return values, nil
}

// serveMetrics serves the metrics gathered by reg over HTTP at addr
// until the returned function is called
func serveMetrics(addr string, reg *prometheus.Registry,
	log zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// progress is a tracker.Tracker which advances a progress bar after
// each episode
type progress struct {
	bar *progressbar.ProgressBar
}

func (p progress) Track(tracker.Episode) error {
	p.bar.Increment()
	return nil
}

func (p progress) Save() error {
	return nil
}
