package recorder

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/teenjuna/framed/backoff"
)

type Config struct {
	flushSize    int
	flushTimeout time.Duration
	backoff      backoff.Policy
	logger       zerolog.Logger
}

type ConfigFunc = func(c *Config)

// FlushSize sets the number of entries that triggers a journal write.
func (c *Config) FlushSize(size int) {
	if size < 1 {
		panic("flush size can't be < 1")
	}
	c.flushSize = size
}

// FlushTimeout sets the max time an entry waits in the batch. Zero disables the timer.
func (c *Config) FlushTimeout(timeout time.Duration) {
	if timeout < 0 {
		panic("flush timeout can't be < 0")
	}
	c.flushTimeout = timeout
}

// Backoff sets the policy used between attempts of a failed journal write. The recorder fails once
// the policy gives up.
func (c *Config) Backoff(policy backoff.Policy) {
	if policy == nil {
		panic("backoff policy can't be nil")
	}
	c.backoff = policy
}

func (c *Config) Logger(logger zerolog.Logger) {
	c.logger = logger
}

func newConfig(configFuncs ...ConfigFunc) *Config {
	cfg := &Config{}
	cfg.FlushSize(100)
	cfg.FlushTimeout(time.Second)
	cfg.Backoff(backoff.Exponential(3, 10*time.Millisecond, time.Second))
	cfg.Logger(zerolog.Nop())
	for _, cf := range configFuncs {
		if cf != nil {
			cf(cfg)
		}
	}
	return cfg
}
