package backoff

import (
	"context"
	"time"
)

// LinearPolicy increases the interval by a constant step after every attempt, up to the max
// interval.
type LinearPolicy struct {
	waited      int
	attempts    int
	infinite    bool
	jitter      float64
	step        time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
}

var _ Policy = (*LinearPolicy)(nil)

// Linear returns a policy allowing the provided number of attempts. Zero means infinite.
//
// With finite attempts the step is chosen so that the last attempt waits for maxInterval. With
// infinite attempts the step equals minInterval.
func Linear(attempts int, minInterval, maxInterval time.Duration) *LinearPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	validateIntervals(minInterval, maxInterval)

	var step time.Duration
	if attempts == 0 {
		step = minInterval
	} else if attempts > 1 {
		step = (maxInterval - minInterval) / time.Duration(attempts-1)
	}

	return &LinearPolicy{
		attempts:    attempts,
		infinite:    attempts == 0,
		minInterval: minInterval,
		maxInterval: maxInterval,
		step:        step,
		jitter:      0.1,
	}
}

func (p *LinearPolicy) WithStep(step time.Duration) *LinearPolicy {
	if step <= 0 {
		panic("step can't be <= 0")
	}
	p.step = step
	return p
}

func (p *LinearPolicy) WithJitter(jitter float64) *LinearPolicy {
	validateJitter(jitter)
	p.jitter = jitter
	return p
}

func (p *LinearPolicy) Wait(ctx context.Context) (ok bool) {
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
		interval = p.minInterval + p.step*time.Duration(p.waited)
		if interval >= p.maxInterval {
			p.maxReached = true
			interval = p.maxInterval
		}
	}

	return wait(ctx, interval, p.jitter)
}

func (p *LinearPolicy) Derive() Policy {
	return &LinearPolicy{
		attempts:    p.attempts,
		infinite:    p.infinite,
		jitter:      p.jitter,
		step:        p.step,
		minInterval: p.minInterval,
		maxInterval: p.maxInterval,
	}
}
