package backoff

import (
	"context"
	"time"
)

// FixedPolicy waits the same interval before every attempt.
type FixedPolicy struct {
	waited   int
	attempts int
	infinite bool
	jitter   float64
	interval time.Duration
}

var _ Policy = (*FixedPolicy)(nil)

// Fixed returns a policy allowing the provided number of attempts. Zero means infinite.
func Fixed(attempts int, interval time.Duration) *FixedPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return &FixedPolicy{
		attempts: attempts,
		infinite: attempts == 0,
		interval: interval,
		jitter:   0.1,
	}
}

func (p *FixedPolicy) WithJitter(jitter float64) *FixedPolicy {
	validateJitter(jitter)
	p.jitter = jitter
	return p
}

func (p *FixedPolicy) Wait(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			p.waited += 1
		}
	}()

	if !p.infinite && p.waited >= p.attempts {
		return false
	}

	return wait(ctx, p.interval, p.jitter)
}

func (p *FixedPolicy) Derive() Policy {
	return Fixed(p.attempts, p.interval).
		WithJitter(p.jitter)
}
