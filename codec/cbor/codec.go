// This package contains a codec for self-delimiting CBOR documents (RFC 8949).
package cbor

import (
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

const format = "cbor"

type Codec[Item any] struct {
	canonical bool
	enc       cbor.EncMode
	dec       cbor.DecMode
}

var _ codec.Codec[any] = (*Codec[any])(nil)

func New[Item any]() *Codec[Item] {
	return (&Codec[Item]{}).WithCanonical(false)
}

// WithCanonical controls whether items are encoded in the deterministic core encoding, with sorted
// map keys and the shortest forms of integers and floats.
func (c *Codec[Item]) WithCanonical(canonical bool) *Codec[Item] {
	opts := cbor.EncOptions{}
	if canonical {
		opts = cbor.CoreDetEncOptions()
	}

	enc, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}

	c.canonical = canonical
	c.enc = enc
	c.dec = dec
	return c
}

func (c *Codec[Item]) Encode(item Item, buf *buffer.Buffer) error {
	data, err := c.enc.Marshal(item)
	if err != nil {
		return codec.EncodeFailed(format, err)
	}

	_, _ = buf.Write(data)
	return nil
}

func (c *Codec[Item]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	var item Item

	data := buf.Bytes()
	if len(data) == 0 {
		return item, false, nil
	}

	rest, err := c.dec.UnmarshalFirst(data, &item)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			var zero Item
			return zero, false, nil
		}
		return item, false, codec.DecodeFailed(format, err)
	}

	buf.Advance(len(data) - len(rest))
	return item, true, nil
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New[Item]().WithCanonical(c.canonical)
}
