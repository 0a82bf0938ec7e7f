// This package contains the [Policy] interface and several implementations.
//
// A policy decides how long an operation waits before it's attempted again and when to give up.
// Framed readers and writers use it while a non-blocking transport isn't ready. The frame
// recorder uses it between failed journal writes.
package backoff

import (
	"context"
)

// Policy defines the waiting behaviour between attempts of a single operation.
//
// Implementations are not considered thread-safe and each instance is used by a single operation.
type Policy interface {
	// Wait blocks until another attempt can be made or the context is cancelled.
	//
	// Returns true if an attempt should be made, false if no attempts remain or the context is
	// done.
	Wait(ctx context.Context) bool
	// Derive returns a new Policy instance with the same settings and no attempts made.
	Derive() Policy
}
