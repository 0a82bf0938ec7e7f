package framed

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/teenjuna/framed/backoff"
	"github.com/teenjuna/framed/buffer"
)

const (
	// DefaultHighWaterMark is the default number of buffered bytes at which a writer stops
	// accepting items.
	DefaultHighWaterMark = 1 << 17
	// DefaultReadSize is the default minimum number of bytes requested from the transport by a
	// single read.
	DefaultReadSize = 4 * 1024
)

// Config of a [Reader], [Writer] or [Framed].
//
// An instance is created by the constructors and passed to configuration functions. The zero
// value is invalid.
type Config struct {
	readBufferSize  int
	readSize        int
	writeBufferSize int
	highWaterMark   int
	maxFrameSize    int
	backoff         backoff.Policy
	logger          zerolog.Logger
	prometheus      *PrometheusConfig
	metrics         *metrics
}

type ConfigFunc = func(c *Config)

// ReadBufferSize sets the initial capacity of the read buffer.
func (c *Config) ReadBufferSize(size int) {
	if size < 1 {
		panic("read buffer size can't be < 1")
	}
	c.readBufferSize = size
}

// ReadSize sets the minimum number of bytes requested from the transport by a single read. Reads
// are still capped by the max frame size.
func (c *Config) ReadSize(size int) {
	if size < 1 {
		panic("read size can't be < 1")
	}
	c.readSize = size
}

// WriteBufferSize sets the initial capacity of the write buffer.
func (c *Config) WriteBufferSize(size int) {
	if size < 1 {
		panic("write buffer size can't be < 1")
	}
	c.writeBufferSize = size
}

// HighWaterMark sets the number of buffered bytes at which a writer stops accepting items.
func (c *Config) HighWaterMark(size int) {
	if size < 1 {
		panic("high water mark can't be < 1")
	}
	c.highWaterMark = size
}

// MaxFrameSize sets the max number of bytes a reader buffers while waiting for a complete frame.
// Zero means that only the limit declared by the codec applies.
func (c *Config) MaxFrameSize(size int) {
	if size < 0 {
		panic("max frame size can't be < 0")
	}
	c.maxFrameSize = size
}

// Backoff sets the policy used while a non-blocking transport reports [ErrWouldBlock]. Every
// blocked operation uses a policy derived from this one.
func (c *Config) Backoff(policy backoff.Policy) {
	if policy == nil {
		panic("backoff policy can't be nil")
	}
	c.backoff = policy
}

// Logger sets the logger. Readers and writers log at debug and warn levels only.
func (c *Config) Logger(logger zerolog.Logger) {
	c.logger = logger
}

// Prometheus sets the config of the Prometheus metrics. See [Prometheus].
func (c *Config) Prometheus(config *PrometheusConfig) {
	if config == nil {
		panic("prometheus config can't be nil")
	}
	c.prometheus = config
}

func newConfig(configFuncs ...ConfigFunc) *Config {
	cfg := &Config{}
	cfg.ReadBufferSize(buffer.DefaultSize)
	cfg.ReadSize(DefaultReadSize)
	cfg.WriteBufferSize(buffer.DefaultSize)
	cfg.HighWaterMark(DefaultHighWaterMark)
	cfg.MaxFrameSize(0)
	cfg.Backoff(backoff.Exponential(0, time.Millisecond, time.Millisecond*100))
	cfg.Logger(zerolog.Nop())
	cfg.Prometheus(Prometheus(nil))
	for _, cf := range configFuncs {
		if cf != nil {
			cf(cfg)
		}
	}

	cfg.metrics = cfg.prometheus.metrics()

	return cfg
}
