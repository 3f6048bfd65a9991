// Package metrics records codec activity as Prometheus metrics on a private
// registry. The CLI can export the registry through the node-exporter
// textfile collector.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Operation status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the codec collectors and the registry they live on.
type Metrics struct {
	mu         sync.RWMutex
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// Global is the metrics instance used by the CLI.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = New()

// New returns a Metrics with freshly registered collectors.
func New() *Metrics {
	m := &Metrics{}
	m.init()
	return m
}

func (m *Metrics) init() {
	m.registry = prometheus.NewRegistry()
	m.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ethwire_codec_operations_total",
		Help: "Total number of codec operations",
	}, []string{"op", "type", "status"})
	m.bytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ethwire_codec_bytes_total",
		Help: "Total number of wire bytes read or written by codec operations",
	}, []string{"op"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ethwire_codec_duration_seconds",
		Help:    "Time taken by a codec operation",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"op"})
	m.registry.MustRegister(m.operations, m.bytes, m.duration)
}

// RecordOp records one codec operation. txType may be empty for operations
// that are not tied to a transaction type.
func (m *Metrics) RecordOp(op, txType string, wireBytes int, d time.Duration, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.operations.WithLabelValues(op, txType, status).Inc()
	if wireBytes > 0 {
		m.bytes.WithLabelValues(op).Add(float64(wireBytes))
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// Snapshot is a point-in-time summary of the registry.
type Snapshot struct {
	OperationsTotal int64
	ErrorsTotal     int64
	BytesTotal      int64
	ByOp            map[string]int64
}

// Snapshot returns a point-in-time summary of all metrics.
func (m *Metrics) Snapshot() (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{ByOp: map[string]int64{}}
	for _, mf := range families {
		switch mf.GetName() {
		case "ethwire_codec_operations_total":
			for _, metric := range mf.GetMetric() {
				n := int64(metric.GetCounter().GetValue())
				snap.OperationsTotal += n
				snap.ByOp[label(metric, "op")] += n
				if label(metric, "status") == StatusError {
					snap.ErrorsTotal += n
				}
			}
		case "ethwire_codec_bytes_total":
			for _, metric := range mf.GetMetric() {
				snap.BytesTotal += int64(metric.GetCounter().GetValue())
			}
		}
	}
	return snap, nil
}

func label(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry())
}

// Reset replaces every collector with a fresh one.
// Useful for testing.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
}
