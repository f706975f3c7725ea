package tracker

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the progress of an experiment as Prometheus metrics:
//
//	rltrader_episodes_total{mode}            Episodes finished
//	rltrader_portfolio_value{mode}           End value of the last episode
//	rltrader_epsilon{mode}                   Exploration rate
//	rltrader_episode_duration_seconds{mode}  Wall time per episode
type Metrics struct {
	episodes prometheus.Counter
	value    prometheus.Gauge
	epsilon  prometheus.Gauge
	duration prometheus.Histogram
}

// NewMetrics creates the metrics of an experiment run in the given mode
// and registers them with reg
func NewMetrics(reg prometheus.Registerer, mode string) (*Metrics, error) {
	labels := prometheus.Labels{"mode": mode}
	m := &Metrics{
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rltrader_episodes_total",
			Help:        "Episodes finished",
			ConstLabels: labels,
		}),
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rltrader_portfolio_value",
			Help:        "Portfolio value at the end of the last episode",
			ConstLabels: labels,
		}),
		epsilon: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rltrader_epsilon",
			Help:        "Exploration rate of the agent",
			ConstLabels: labels,
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "rltrader_episode_duration_seconds",
			Help:        "Wall time taken by each episode",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.episodes, m.value, m.epsilon, m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("newMetrics: %w", err)
		}
	}
	return m, nil
}

// Track updates the metrics with a finished episode
func (m *Metrics) Track(ep Episode) error {
	m.episodes.Inc()
	m.value.Set(ep.Value)
	m.epsilon.Set(ep.Epsilon)
	m.duration.Observe(ep.Duration.Seconds())
	return nil
}

// Save does nothing, metrics are scraped as they change
func (m *Metrics) Save() error {
	return nil
}
