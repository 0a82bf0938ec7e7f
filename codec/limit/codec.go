// This package contains a codec wrapper that bounds the size of encoded frames.
package limit

import (
	"fmt"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

// Codec wraps another codec and rejects frames that occupy more than the max frame size.
//
// Encode rejects items whose frame would be too large and leaves the buffer unchanged. Decode
// reports [codec.ErrFrameTooLarge] once the max frame size is buffered without a complete frame.
type Codec[Item any] struct {
	inner        codec.Codec[Item]
	maxFrameSize int
}

var (
	_ codec.Codec[any]      = (*Codec[any])(nil)
	_ codec.EOFDecoder[any] = (*Codec[any])(nil)
	_ codec.Limited         = (*Codec[any])(nil)
)

func New[Item any](inner codec.Codec[Item], maxFrameSize int) *Codec[Item] {
	if inner == nil {
		panic("inner codec can't be nil")
	}
	if maxFrameSize < 1 {
		panic("max frame size can't be < 1")
	}
	return &Codec[Item]{
		inner:        inner,
		maxFrameSize: maxFrameSize,
	}
}

func (c *Codec[Item]) Encode(item Item, buf *buffer.Buffer) error {
	mark := buf.Len()
	if err := c.inner.Encode(item, buf); err != nil {
		return err
	}

	if n := buf.Len() - mark; n > c.maxFrameSize {
		buf.Truncate(mark)
		return fmt.Errorf("%w: encoded %d bytes, max frame size is %d", codec.ErrFrameTooLarge, n, c.maxFrameSize)
	}

	return nil
}

func (c *Codec[Item]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	item, ok, err := c.inner.Decode(buf)
	return c.check(buf, item, ok, err)
}

func (c *Codec[Item]) DecodeEOF(buf *buffer.Buffer) (Item, bool, error) {
	item, ok, err := codec.DecodeEOF(c.inner, buf)
	return c.check(buf, item, ok, err)
}

// MaxFrameSize returns the configured limit or the inner codec's limit, whichever is smaller.
func (c *Codec[Item]) MaxFrameSize() int {
	if n := codec.MaxFrameSize(c.inner); n > 0 && n < c.maxFrameSize {
		return n
	}
	return c.maxFrameSize
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New(c.inner.Derive(), c.maxFrameSize)
}

func (c *Codec[Item]) check(buf *buffer.Buffer, item Item, ok bool, err error) (Item, bool, error) {
	if ok || err != nil {
		return item, ok, err
	}
	if buf.Len() >= c.maxFrameSize {
		return item, false, fmt.Errorf(
			"%w: %d bytes buffered without a complete frame, max frame size is %d",
			codec.ErrFrameTooLarge, buf.Len(), c.maxFrameSize,
		)
	}
	return item, false, nil
}
