// Package metrics records what each run did as Prometheus metrics. A
// one-shot process has nothing to scrape, so Push sends them to a
// Pushgateway at the end of the run.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "newsbot"
	job       = "newsbot"
)

// Step results recorded by RecordStep.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultBypassed = "bypassed"
)

// Metrics holds the collectors of one process. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	messagesSent prometheus.Counter
	runDuration  prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// New returns Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by outcome",
		}, []string{"outcome"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Condense and translate steps by result",
		}, []string{"step", "result"}),
		messagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_messages_sent_total",
			Help:      "Messages accepted by the Telegram Bot API",
		}),
		runDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_publish_timestamp_seconds",
			Help:      "Unix time of the last published message",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRun records the outcome and duration of a run.
func (m *Metrics) RecordRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Set(d.Seconds())
}

// RecordStep records the result of an optional pipeline step such as
// "condense" or "translate".
func (m *Metrics) RecordStep(step, result string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, result).Inc()
}

// RecordPublished records a message accepted by Telegram at t.
func (m *Metrics) RecordPublished(t time.Time) {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
	m.lastSuccess.Set(float64(t.Unix()))
}

// Push sends all metrics to the Pushgateway at url, replacing the previous
// group of this job.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if m == nil || url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(m.registry).PushContext(ctx)
}
