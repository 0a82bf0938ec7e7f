// This package contains a codec for self-delimiting MessagePack documents.
//
// Items are serialized by the methods generated by github.com/tinylib/msgp.
package msgp

import (
	"errors"

	"github.com/tinylib/msgp/msgp"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

const format = "msgp"

type Codec[Item any, ItemPtr msgpable[Item]] struct {
	scratch []byte
}

var _ codec.Codec[msgp.Raw] = (*Codec[msgp.Raw, *msgp.Raw])(nil)

func New[Item any, ItemPtr msgpable[Item]]() *Codec[Item, ItemPtr] {
	return &Codec[Item, ItemPtr]{}
}

func (c *Codec[Item, ItemPtr]) Encode(item Item, buf *buffer.Buffer) error {
	b, err := ItemPtr(&item).MarshalMsg(c.scratch[:0])
	if err != nil {
		return codec.EncodeFailed(format, err)
	}
	c.scratch = b

	_, _ = buf.Write(b)
	return nil
}

func (c *Codec[Item, ItemPtr]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	var item Item

	data := buf.Bytes()
	if len(data) == 0 {
		return item, false, nil
	}

	rest, err := ItemPtr(&item).UnmarshalMsg(data)
	if err != nil {
		if isShort(err) {
			var zero Item
			return zero, false, nil
		}
		return item, false, codec.DecodeFailed(format, err)
	}

	buf.Advance(len(data) - len(rest))
	return item, true, nil
}

func (c *Codec[Item, ItemPtr]) Derive() codec.Codec[Item] {
	return New[Item, ItemPtr]()
}

func isShort(err error) bool {
	return errors.Is(err, msgp.ErrShortBytes) || msgp.Cause(err) == msgp.ErrShortBytes
}

type msgpable[Item any] interface {
	*Item
	msgp.Marshaler
	msgp.Unmarshaler
}
