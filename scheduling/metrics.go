package scheduling

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "schedmesh"
	metricsSubsystem = "scheduling_api"

	labelOperation = "operation"
	labelOutcome   = "outcome"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Metrics holds the Prometheus collectors of the facade. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	batchSize   prometheus.Histogram
	resolutions *prometheus.CounterVec
	cacheHits   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "calls_total",
			Help:      "Total number of scheduling API operations by outcome",
		}, []string{labelOperation, labelOutcome}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "call_duration_seconds",
			Help:      "Latency of scheduling API operations including the remote round trip",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{labelOperation}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "priority_update_batch_size",
			Help:      "Number of priority updates coalesced into one queueing call",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "resolutions_total",
			Help:      "Total number of facade resolutions by outcome",
		}, []string{labelOutcome}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of facade requests served from the handle cache",
		}),
	}
	var err error
	if m.calls, err = register(registry, m.calls); err != nil {
		return nil, err
	}
	if m.latency, err = register(registry, m.latency); err != nil {
		return nil, err
	}
	if m.batchSize, err = register(registry, m.batchSize); err != nil {
		return nil, err
	}
	if m.resolutions, err = register(registry, m.resolutions); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(registry, m.cacheHits); err != nil {
		return nil, err
	}
	return m, nil
}

// register adopts an already registered collector of the same shape so that
// several caches can share one registry.
func register[C prometheus.Collector](registry prometheus.Registerer, c C) (C, error) {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeSuccess
}

func (m *Metrics) observeCall(op string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) observeBatch(size int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}

func (m *Metrics) observeResolution(err error) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
