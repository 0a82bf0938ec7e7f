package framed

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by readers and writers.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
//
// Readers and writers created with configs that share a registerer share the metrics, so a
// process serving many connections exposes one set of series.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the frames counter. Partitioned by the "direction" label.
	Frames prometheus.CounterOpts
	// Options for the bytes counter. Partitioned by the "direction" label.
	Bytes prometheus.CounterOpts
	// Options for the errors counter. Partitioned by the "kind" label.
	Errors prometheus.CounterOpts
	// Options for the buffered bytes gauge.
	Buffered prometheus.GaugeOpts
	// Options for the flush duration histogram.
	FlushDuration prometheus.HistogramOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "framed"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Frames: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Number of frames read from or written to transports",
		},
		Bytes: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_total",
			Help:      "Number of bytes read from or written to transports",
		},
		Errors: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Number of transport, decode and encode errors",
		},
		Buffered: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "buffered_bytes",
			Help:      "Number of encoded bytes waiting to be written",
		},
		FlushDuration: prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flush_duration_seconds",
			Help:      "Duration of write buffer flushes",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	m := metrics{
		frames:        prometheus.NewCounterVec(c.Frames, []string{"direction"}),
		bytes:         prometheus.NewCounterVec(c.Bytes, []string{"direction"}),
		errors:        prometheus.NewCounterVec(c.Errors, []string{"kind"}),
		buffered:      prometheus.NewGauge(c.Buffered),
		flushDuration: prometheus.NewHistogram(c.FlushDuration),
	}

	if c.registerer != nil {
		m.frames = register(c.registerer, m.frames)
		m.bytes = register(c.registerer, m.bytes)
		m.errors = register(c.registerer, m.errors)
		m.buffered = register(c.registerer, m.buffered)
		m.flushDuration = register(c.registerer, m.flushDuration)
	}

	return &m
}

// register registers collector or returns the equal collector that is already registered.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}

	panic(err)
}
