package backoff

import (
	"context"
	"runtime"
)

// ImmediatePolicy retries without waiting. It only yields the processor to other goroutines.
type ImmediatePolicy struct {
	waited   int
	attempts int
	infinite bool
}

var _ Policy = (*ImmediatePolicy)(nil)

// Immediate returns a policy allowing the provided number of attempts. Zero means infinite.
func Immediate(attempts int) *ImmediatePolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	return &ImmediatePolicy{
		attempts: attempts,
		infinite: attempts == 0,
	}
}

func (p *ImmediatePolicy) Wait(ctx context.Context) bool {
	if !p.infinite && p.waited >= p.attempts {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	runtime.Gosched()
	if !p.infinite {
		p.waited += 1
	}

	return true
}

func (p *ImmediatePolicy) Derive() Policy {
	return Immediate(p.attempts)
}
