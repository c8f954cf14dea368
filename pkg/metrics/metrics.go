package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects sweep metrics on its own registry
type Recorder struct {
	registry     *prometheus.Registry
	trials       *prometheus.CounterVec
	nodes        *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	threshold    *prometheus.GaugeVec
	sweeps       *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sir",
			Name:      "trials_total",
			Help:      "SIR trials simulated.",
		}, []string{"network"}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sir",
			Name:      "seed_nodes_total",
			Help:      "Seed nodes whose trials completed.",
		}, []string{"network"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sir",
			Name:      "seed_node_duration_seconds",
			Help:      "Wall time to run all trials of one seed node.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"network"}),
		threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sir",
			Name:      "epidemic_threshold",
			Help:      "Estimated epidemic threshold per network.",
		}, []string{"network", "method"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sir",
			Name:      "beta_sweeps_total",
			Help:      "Beta sweeps by outcome.",
		}, []string{"network", "status"}),
	}

	r.registry.MustRegister(r.trials, r.nodes, r.nodeDuration, r.threshold, r.sweeps)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveNode records a finished seed node and its trials
func (r *Recorder) ObserveNode(network string, trials int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.trials.WithLabelValues(network).Add(float64(trials))
	r.nodes.WithLabelValues(network).Inc()
	r.nodeDuration.WithLabelValues(network).Observe(elapsed.Seconds())
}

// SetThreshold records a defined threshold
func (r *Recorder) SetThreshold(network, method string, value float64) {
	if r == nil {
		return
	}
	r.threshold.WithLabelValues(network, method).Set(value)
}

// ObserveSweep counts a beta sweep with status "ok", "failed" or "skipped"
func (r *Recorder) ObserveSweep(network, status string) {
	if r == nil {
		return
	}
	r.sweeps.WithLabelValues(network, status).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by a node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
