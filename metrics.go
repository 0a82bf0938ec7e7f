package framed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	directionRead  = "read"
	directionWrite = "write"

	kindTransport = "transport"
	kindDecode    = "decode"
	kindEncode    = "encode"
)

type metrics struct {
	frames        *prometheus.CounterVec
	bytes         *prometheus.CounterVec
	errors        *prometheus.CounterVec
	buffered      prometheus.Gauge
	flushDuration prometheus.Histogram
}

func (m *metrics) framesRead() {
	m.frames.WithLabelValues(directionRead).Inc()
}

func (m *metrics) framesWritten() {
	m.frames.WithLabelValues(directionWrite).Inc()
}

func (m *metrics) bytesRead(n int) {
	m.bytes.WithLabelValues(directionRead).Add(float64(n))
}

func (m *metrics) bytesWritten(n int) {
	m.bytes.WithLabelValues(directionWrite).Add(float64(n))
}

func (m *metrics) error(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

func (m *metrics) bufferedDelta(n int) {
	m.buffered.Add(float64(n))
}

func (m *metrics) flushed(start time.Time) {
	m.flushDuration.Observe(time.Since(start).Seconds())
}
