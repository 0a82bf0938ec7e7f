package framed_test

import (
	"testing"

	"github.com/teenjuna/framed"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestOptions(t *testing.T) {
	c := &framed.Config{}

	require.PanicWithError(t, "read buffer size can't be < 1", func() {
		c.ReadBufferSize(0)
	})

	require.PanicWithError(t, "read size can't be < 1", func() {
		c.ReadSize(0)
	})

	require.PanicWithError(t, "write buffer size can't be < 1", func() {
		c.WriteBufferSize(0)
	})

	require.PanicWithError(t, "high water mark can't be < 1", func() {
		c.HighWaterMark(0)
	})

	require.PanicWithError(t, "max frame size can't be < 0", func() {
		c.MaxFrameSize(-1)
	})

	require.PanicWithError(t, "backoff policy can't be nil", func() {
		c.Backoff(nil)
	})

	require.PanicWithError(t, "prometheus config can't be nil", func() {
		c.Prometheus(nil)
	})
}
