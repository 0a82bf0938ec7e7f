package framed

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	"github.com/teenjuna/framed/backoff"
	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

// Flusher is implemented by transports that buffer written bytes themselves, e.g. *bufio.Writer.
type Flusher interface {
	Flush() error
}

// CloseWriter is implemented by transports that can shut down their write side while the read
// side stays open, e.g. *net.TCPConn.
type CloseWriter interface {
	CloseWrite() error
}

// Writer turns items into a byte stream.
//
// Items are encoded into a write buffer and written to the transport by [Writer.Flush] and
// [Writer.WaitReady]. The writer stops accepting items once the buffer reaches the high water
// mark (see [Config.HighWaterMark]).
//
// A Writer is not thread-safe.
type Writer[Item any] struct {
	cfg     *Config
	w       io.Writer
	encoder codec.Encoder[Item]
	buf     *buffer.Buffer

	// Terminal transport error.
	err     error
	closed  bool
	written bool
}

// NewWriter returns a Writer that encodes items with e and writes them to w.
func NewWriter[Item any](
	w io.Writer,
	e codec.Encoder[Item],
	configFuncs ...ConfigFunc,
) *Writer[Item] {
	return newWriter(w, e, newConfig(configFuncs...))
}

func newWriter[Item any](w io.Writer, e codec.Encoder[Item], cfg *Config) *Writer[Item] {
	if w == nil {
		panic("writer can't be nil")
	}
	if e == nil {
		panic("encoder can't be nil")
	}

	return &Writer[Item]{
		cfg:     cfg,
		w:       w,
		encoder: e,
		buf:     buffer.New(cfg.writeBufferSize),
	}
}

// Ready reports whether [Writer.Submit] would accept an item.
func (w *Writer[Item]) Ready() bool {
	return !w.closed && w.err == nil && w.buf.Len() < w.cfg.highWaterMark
}

// Submit encodes item into the write buffer. It doesn't write anything to the transport.
//
// Returns [ErrClosed] after [Writer.Close], the terminal error after a transport failure and
// [ErrNotReady] if the buffer has reached the high water mark. An encoder failure is returned as
// [*EncodeError] and leaves the buffer unchanged.
func (w *Writer[Item]) Submit(item Item) error {
	if err := w.check(); err != nil {
		return err
	}
	if w.buf.Len() >= w.cfg.highWaterMark {
		return ErrNotReady
	}

	mark := w.buf.Len()
	if err := w.encoder.Encode(item, w.buf); err != nil {
		w.buf.Truncate(mark)
		w.cfg.metrics.error(kindEncode)
		return &EncodeError{Err: err}
	}

	w.cfg.metrics.framesWritten()
	w.cfg.metrics.bufferedDelta(w.buf.Len() - mark)

	return nil
}

// WaitReady writes buffered bytes until the buffer drops below the high water mark.
func (w *Writer[Item]) WaitReady(ctx context.Context) error {
	if err := w.check(); err != nil {
		return err
	}

	for w.buf.Len() >= w.cfg.highWaterMark {
		if err := w.write(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Flush writes all buffered bytes and flushes the transport if it implements [Flusher].
func (w *Writer[Item]) Flush(ctx context.Context) error {
	if err := w.check(); err != nil {
		return err
	}
	return w.flush(ctx)
}

// Close flushes the writer and shuts down the write side of the transport: CloseWrite is called
// if the transport implements [CloseWriter], Close if it implements [io.Closer].
//
// The transport is shut down even if the flush fails. Calling Close again returns [ErrClosed].
func (w *Writer[Item]) Close(ctx context.Context) error {
	if w.closed {
		return ErrClosed
	}

	var flushErr error
	if w.err == nil {
		flushErr = w.flush(ctx)
	}
	w.closed = true

	var closeErr error
	switch t := w.w.(type) {
	case CloseWriter:
		closeErr = t.CloseWrite()
	case io.Closer:
		closeErr = t.Close()
	}
	if closeErr != nil {
		closeErr = &TransportError{Op: "close", Err: closeErr}
	}

	w.cfg.metrics.bufferedDelta(-w.buf.Len())
	w.cfg.logger.Debug().Int("discarded", w.buf.Len()).Msg("writer closed")
	w.buf.Reset()

	return errors.Join(flushErr, closeErr)
}

// Send submits a single item and flushes it.
func (w *Writer[Item]) Send(ctx context.Context, item Item) error {
	if err := w.WaitReady(ctx); err != nil {
		return err
	}
	if err := w.Submit(item); err != nil {
		return err
	}
	return w.Flush(ctx)
}

// SendAll submits every item of the sequence, writing whenever the buffer reaches the high water
// mark, and flushes at the end. It stops at the first error of the sequence or the writer.
func (w *Writer[Item]) SendAll(ctx context.Context, items iter.Seq2[Item, error]) error {
	for item, err := range items {
		if err != nil {
			return err
		}
		if err := w.WaitReady(ctx); err != nil {
			return err
		}
		if err := w.Submit(item); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}

// Buffered returns the number of encoded bytes waiting to be written.
func (w *Writer[Item]) Buffered() int {
	return w.buf.Len()
}

func (w *Writer[Item]) check() error {
	if w.closed {
		return ErrClosed
	}
	return w.err
}

func (w *Writer[Item]) flush(ctx context.Context) error {
	defer w.cfg.metrics.flushed(time.Now())

	for w.buf.Len() > 0 {
		if err := w.write(ctx); err != nil {
			return err
		}
	}

	if !w.written {
		return nil
	}

	if f, ok := w.w.(Flusher); ok {
		if err := f.Flush(); err != nil {
			if isTemporary(err) {
				return &TransportError{Op: "flush", Err: err}
			}
			return w.fail(&TransportError{Op: "flush", Err: err})
		}
	}
	w.written = false

	return nil
}

// write performs a single successful write of the front of the buffer.
func (w *Writer[Item]) write(ctx context.Context) error {
	var policy backoff.Policy
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := w.w.Write(w.buf.Bytes())
		if n < 0 || n > w.buf.Len() {
			return w.fail(&TransportError{Op: "write", Err: io.ErrShortWrite})
		}
		if n > 0 {
			w.buf.Advance(n)
			w.written = true
			w.cfg.metrics.bytesWritten(n)
			w.cfg.metrics.bufferedDelta(-n)
		}

		switch {
		case err == nil && n == 0:
			return w.fail(&TransportError{Op: "write", Err: ErrEndOfOutput})
		case err == nil:
			return nil
		case isWouldBlock(err):
			if n > 0 {
				return nil
			}
			if policy == nil {
				policy = w.cfg.backoff.Derive()
			}
			if !policy.Wait(ctx) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return &TransportError{Op: "write", Err: err}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case isTemporary(err):
			return &TransportError{Op: "write", Err: err}
		default:
			return w.fail(&TransportError{Op: "write", Err: err})
		}
	}
}

func (w *Writer[Item]) fail(err error) error {
	w.err = err
	w.cfg.metrics.error(kindTransport)
	w.cfg.logger.Warn().Err(err).Int("buffered", w.buf.Len()).Msg("write failed")
	return err
}
