// This package contains a codec that passes bytes through unchanged.
//
// It provides no framing beyond "some bytes arrived" and is suitable only when message boundaries
// are known to the caller.
package bytes

import (
	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

type Codec struct{}

var _ codec.Codec[[]byte] = (*Codec)(nil)

func New() *Codec {
	return &Codec{}
}

// Encode appends item verbatim.
func (c *Codec) Encode(item []byte, buf *buffer.Buffer) error {
	_, _ = buf.Write(item)
	return nil
}

// Decode returns all buffered bytes as a single item.
func (c *Codec) Decode(buf *buffer.Buffer) ([]byte, bool, error) {
	if buf.Len() == 0 {
		return nil, false, nil
	}
	return buf.Take(buf.Len()), true, nil
}

func (c *Codec) Derive() codec.Codec[[]byte] {
	return New()
}
