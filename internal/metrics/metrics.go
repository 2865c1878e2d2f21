package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roombridge"

var (
	pluginRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "janus",
			Name:      "plugin_requests_total",
			Help:      "Count of plugin requests handled by the bridge, by request and result.",
		},
		[]string{"request", "result"},
	)
	pendingTransactionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "janus",
			Name:      "pending_transactions",
			Help:      "Number of transactions awaiting a gateway response.",
		},
	)
	activeStreamsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "streams",
			Name:      "active",
			Help:      "Number of streams currently registered as subscribed upstream.",
		},
	)
	jobRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Count of job runs, by job type and result.",
		},
		[]string{"job", "result"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Job run latency distribution.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"job"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(pluginRequestCounter)
		reg.MustRegister(pendingTransactionsGauge)
		reg.MustRegister(activeStreamsGauge)
		reg.MustRegister(jobRunCounter)
		reg.MustRegister(jobDuration)
	})
}

func RecordPluginRequest(request, result string) {
	pluginRequestCounter.WithLabelValues(request, result).Inc()
}

func AddPendingTransactions(delta int) {
	pendingTransactionsGauge.Add(float64(delta))
}

func SetActiveStreams(n int) {
	activeStreamsGauge.Set(float64(n))
}

// RecordJobRun records the result and latency of one job run.
func RecordJobRun(job, result string, elapsed time.Duration) {
	jobRunCounter.WithLabelValues(job, result).Inc()
	jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
