// This package contains a codec for gob-encoded items.
//
// Gob streams are stateful, so every item is encoded as a standalone gob stream carrying its own
// type information and framed with a 4 byte big-endian length prefix.
package gob

import (
	"bytes"
	"encoding/gob"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/codec/length"
)

const format = "gob"

type Codec[Item any] struct {
	frames  *length.Codec
	scratch *bytes.Buffer
}

var (
	_ codec.Codec[any] = (*Codec[any])(nil)
	_ codec.Limited    = (*Codec[any])(nil)
)

func New[Item any]() *Codec[Item] {
	return &Codec[Item]{
		frames:  length.New(length.Uint32),
		scratch: new(bytes.Buffer),
	}
}

// WithMaxLength sets the maximum size of a single gob stream. Zero means unbounded.
func (c *Codec[Item]) WithMaxLength(maxLength int) *Codec[Item] {
	c.frames.WithMaxLength(maxLength)
	return c
}

func (c *Codec[Item]) Encode(item Item, buf *buffer.Buffer) error {
	c.scratch.Reset()
	if err := gob.NewEncoder(c.scratch).Encode(&item); err != nil {
		return codec.EncodeFailed(format, err)
	}
	return c.frames.Encode(c.scratch.Bytes(), buf)
}

func (c *Codec[Item]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	var item Item

	frame, ok, err := c.frames.Decode(buf)
	if !ok || err != nil {
		return item, false, err
	}

	if err := gob.NewDecoder(bytes.NewReader(frame)).Decode(&item); err != nil {
		return item, false, codec.DecodeFailed(format, err)
	}

	return item, true, nil
}

func (c *Codec[Item]) MaxFrameSize() int {
	return c.frames.MaxFrameSize()
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New[Item]().WithMaxLength(max(c.frames.MaxFrameSize()-c.frames.HeaderLen(), 0))
}
