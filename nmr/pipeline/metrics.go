package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwbudde/algo-nmr/nmr/filter"
)

// metrics implements chain.Observer.
type metrics struct {
	commands       *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	replayLatency  prometheus.Histogram
	replayRecords  *prometheus.CounterVec
	kernelFailures *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmr",
			Subsystem: "pipeline",
			Name:      "commands_total",
			Help:      "Pipeline commands by command and result.",
		}, []string{"command", "result"}),
		commandLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nmr",
			Subsystem: "pipeline",
			Name:      "command_duration_seconds",
			Help:      "Pipeline command latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"command"}),
		replayLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nmr",
			Subsystem: "chain",
			Name:      "replay_duration_seconds",
			Help:      "Duration of chain replays.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		replayRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmr",
			Subsystem: "chain",
			Name:      "replay_records_total",
			Help:      "Records replayed, by whether they were recomputed or reused from the prefix cache.",
		}, []string{"source"}),
		kernelFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nmr",
			Subsystem: "chain",
			Name:      "kernel_failures_total",
			Help:      "Kernel failures by filter kind.",
		}, []string{"kind"}),
	}
}

func (m *metrics) Replayed(applied, reused int, d time.Duration) {
	m.replayLatency.Observe(d.Seconds())
	m.replayRecords.WithLabelValues("applied").Add(float64(applied))
	m.replayRecords.WithLabelValues("cached").Add(float64(reused))
}

func (m *metrics) KernelFailed(kind filter.Name) {
	m.kernelFailures.WithLabelValues(string(kind)).Inc()
}

func (m *metrics) command(name string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(name, result).Inc()
	m.commandLatency.WithLabelValues(name).Observe(d.Seconds())
}
