package backoff_test

import (
	"context"
	"testing"
	"time"

	"github.com/teenjuna/framed/backoff"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestExponential(t *testing.T) {
	run(t, "With invalid attempts", func(t *testing.T) {
		require.PanicWithError(t, "attempts can't be < 0", func() {
			_ = backoff.Exponential(-1, time.Second, time.Minute)
		})
	})

	run(t, "With invalid interval", func(t *testing.T) {
		require.PanicWithError(t, "minInterval can't be <= 0", func() {
			_ = backoff.Exponential(0, 0, time.Minute)
		})
		require.PanicWithError(t, "minInterval can't be >= maxInterval", func() {
			_ = backoff.Exponential(0, time.Second, time.Second)
		})
	})

	run(t, "With invalid base", func(t *testing.T) {
		require.PanicWithError(t, "base can't be <= 1", func() {
			_ = backoff.Exponential(0, time.Second, time.Minute).WithBase(1)
		})
	})

	run(t, "Finite attempts", func(t *testing.T) {
		p := backoff.Exponential(5, time.Second, time.Second*8).WithJitter(0.1)
		f := expectDelay(t, 0.1)
		f(time.Second, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*2, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*4, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*8, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*8, func() { require.True(t, p.Wait(t.Context())) })
		f(0, func() { require.False(t, p.Wait(t.Context())) })
	})

	run(t, "Infinite attempts", func(t *testing.T) {
		p := backoff.Exponential(0, time.Second, time.Second*8).WithBase(3)
		f := expectDelay(t, 0.1)
		f(time.Second, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*3, func() { require.True(t, p.Wait(t.Context())) })
		f(time.Second*8, func() { require.True(t, p.Wait(t.Context())) })
		for range 1000 {
			f(time.Second*8, func() { require.True(t, p.Wait(t.Context())) })
		}
	})

	run(t, "Context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		p := backoff.Exponential(0, time.Second, time.Second*8)
		f := expectDelay(t, 0.1)
		f(time.Second, func() { require.True(t, p.Wait(ctx)) })
		f(time.Second*2, func() { require.True(t, p.Wait(ctx)) })
		cancel()
		f(0, func() { require.False(t, p.Wait(ctx)) })
	})

	run(t, "Derive", func(t *testing.T) {
		p1 := backoff.Exponential(2, time.Second, time.Second*8)
		require.True(t, p1.Wait(t.Context()))
		require.True(t, p1.Wait(t.Context()))
		require.False(t, p1.Wait(t.Context()))

		p2 := p1.Derive()
		f := expectDelay(t, 0.1)
		f(time.Second, func() { require.True(t, p2.Wait(t.Context())) })
		f(time.Second*2, func() { require.True(t, p2.Wait(t.Context())) })
		require.False(t, p2.Wait(t.Context()))
	})
}
