package backoff

import (
	"context"
	"math"
	"time"
)

// ExponentialPolicy multiplies the interval by the base after every attempt, up to the max
// interval.
type ExponentialPolicy struct {
	waited      int
	attempts    int
	infinite    bool
	jitter      float64
	base        float64
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
}

var _ Policy = (*ExponentialPolicy)(nil)

// Exponential returns a policy allowing the provided number of attempts. Zero means infinite.
func Exponential(attempts int, minInterval, maxInterval time.Duration) *ExponentialPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	validateIntervals(minInterval, maxInterval)

	return &ExponentialPolicy{
		attempts:    attempts,
		infinite:    attempts == 0,
		minInterval: minInterval,
		maxInterval: maxInterval,
		base:        2,
		jitter:      0.1,
	}
}

func (p *ExponentialPolicy) WithBase(base float64) *ExponentialPolicy {
	if base <= 1 {
		panic("base can't be <= 1")
	}
	p.base = base
	return p
}

func (p *ExponentialPolicy) WithJitter(jitter float64) *ExponentialPolicy {
	validateJitter(jitter)
	p.jitter = jitter
	return p
}

func (p *ExponentialPolicy) Wait(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			p.waited += 1
		}
	}()

	if !p.infinite && p.waited >= p.attempts {
		return false
	}

	var interval time.Duration
	if p.maxReached {
		interval = p.maxInterval
	} else {
		multiplier := math.Pow(p.base, float64(p.waited))
		interval = time.Duration(float64(p.minInterval) * multiplier)
		if interval >= p.maxInterval || interval <= 0 {
			p.maxReached = true
			interval = p.maxInterval
		}
	}

	return wait(ctx, interval, p.jitter)
}

func (p *ExponentialPolicy) Derive() Policy {
	return Exponential(p.attempts, p.minInterval, p.maxInterval).
		WithBase(p.base).
		WithJitter(p.jitter)
}
