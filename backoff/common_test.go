package backoff_test

import (
	"testing"
	"testing/synctest"
	"time"
)

// Delays are compared after truncation to this resolution, so a policy may overshoot its
// jittered window by at most one step.
const resolution = 10 * time.Microsecond

func run(t *testing.T, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		t.Helper()
		t.Parallel()
		synctest.Test(t, fn)
	})
}

// expectDelay returns a function that runs fn and fails the test unless fn took delay, give or
// take the jitter fraction of it.
func expectDelay(t *testing.T, jitter float64) func(delay time.Duration, fn func()) {
	t.Helper()
	return func(delay time.Duration, fn func()) {
		spread := time.Duration(float64(delay) * jitter)
		lo := (delay - spread).Truncate(resolution)
		hi := (delay + spread + resolution).Truncate(resolution)

		start := time.Now()
		fn()
		took := time.Since(start).Truncate(resolution)

		if took < lo || took > hi {
			t.Fatalf("waited %s, want between %s and %s", took, lo, hi)
		}
	}
}
