// This package turns byte-oriented transports into streams of frames.
//
// A [Reader] decodes items from an [io.Reader] with a [codec.Decoder], a [Writer] encodes items to
// an [io.Writer] with a [codec.Encoder], and [Framed] joins both halves over a single duplex
// transport such as a [net.Conn].
package framed

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/teenjuna/framed/codec"
)

// Framed is a duplex transport that reads items of type In and writes items of type Out.
//
// The read and write halves may be used from two goroutines if the transport allows concurrent
// reads and writes. Each half on its own is not thread-safe.
type Framed[In, Out any] struct {
	rw     io.ReadWriter
	reader *Reader[In]
	writer *Writer[Out]
}

// New returns a Framed that uses c for both directions. The write half uses an instance derived
// from c.
func New[Item any](
	rw io.ReadWriter,
	c codec.Codec[Item],
	configFuncs ...ConfigFunc,
) *Framed[Item, Item] {
	if c == nil {
		panic("codec can't be nil")
	}
	return NewDuplex[Item, Item](rw, c, c.Derive(), configFuncs...)
}

// NewDuplex returns a Framed that decodes incoming frames with d and encodes outgoing items with e.
func NewDuplex[In, Out any](
	rw io.ReadWriter,
	d codec.Decoder[In],
	e codec.Encoder[Out],
	configFuncs ...ConfigFunc,
) *Framed[In, Out] {
	if rw == nil {
		panic("transport can't be nil")
	}

	cfg := newConfig(configFuncs...)

	return &Framed[In, Out]{
		rw:     rw,
		reader: newReader(rw, d, cfg),
		writer: newWriter(rw, e, cfg),
	}
}

// Next returns the next item. See [Reader.Next].
func (f *Framed[In, Out]) Next(ctx context.Context) (In, error) {
	return f.reader.Next(ctx)
}

// All returns a sequence of incoming items. See [Reader.All].
func (f *Framed[In, Out]) All(ctx context.Context) iter.Seq2[In, error] {
	return f.reader.All(ctx)
}

// Ready reports whether [Framed.Submit] would accept an item. See [Writer.Ready].
func (f *Framed[In, Out]) Ready() bool {
	return f.writer.Ready()
}

// Submit encodes an item into the write buffer. See [Writer.Submit].
func (f *Framed[In, Out]) Submit(item Out) error {
	return f.writer.Submit(item)
}

// WaitReady writes until the write buffer is below the high water mark. See [Writer.WaitReady].
func (f *Framed[In, Out]) WaitReady(ctx context.Context) error {
	return f.writer.WaitReady(ctx)
}

// Flush writes all buffered bytes. See [Writer.Flush].
func (f *Framed[In, Out]) Flush(ctx context.Context) error {
	return f.writer.Flush(ctx)
}

// Send submits and flushes a single item. See [Writer.Send].
func (f *Framed[In, Out]) Send(ctx context.Context, item Out) error {
	return f.writer.Send(ctx, item)
}

// SendAll submits every item of the sequence and flushes. See [Writer.SendAll].
func (f *Framed[In, Out]) SendAll(ctx context.Context, items iter.Seq2[Out, error]) error {
	return f.writer.SendAll(ctx, items)
}

// ReadBuffered returns a copy of the bytes read but not yet decoded.
func (f *Framed[In, Out]) ReadBuffered() []byte {
	return f.reader.Buffered()
}

// WriteBuffered returns the number of encoded bytes waiting to be written.
func (f *Framed[In, Out]) WriteBuffered() int {
	return f.writer.Buffered()
}

// Split returns the read and write halves.
//
// The halves keep working on the same transport and buffers; Framed must not be used for the
// direction a half is used for.
func (f *Framed[In, Out]) Split() (*Reader[In], *Writer[Out]) {
	return f.reader, f.writer
}

// Transport returns the underlying transport.
//
// Reading from it directly skips bytes buffered by the read half. Use [Framed.ReadBuffered] to
// recover them.
func (f *Framed[In, Out]) Transport() io.ReadWriter {
	return f.rw
}

// Close closes the write half (see [Writer.Close]) and then the transport if it implements
// [io.Closer] and wasn't closed by the write half already.
//
// Calling Close again returns [ErrClosed].
func (f *Framed[In, Out]) Close(ctx context.Context) error {
	err := f.writer.Close(ctx)
	if errors.Is(err, ErrClosed) {
		return err
	}

	if _, ok := f.rw.(CloseWriter); ok {
		if c, ok := f.rw.(io.Closer); ok {
			if closeErr := c.Close(); closeErr != nil {
				err = errors.Join(err, &TransportError{Op: "close", Err: closeErr})
			}
		}
	}

	return err
}
