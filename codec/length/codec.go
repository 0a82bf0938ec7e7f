// This package contains a codec that prefixes every frame with its length.
//
// Frame format:
//   - N bytes: big-endian payload length, where N is the header width (1, 2, 4 or 8)
//   - L bytes: payload
package length

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

var (
	// ErrOverflow is returned by Encode when the payload length doesn't fit into the header.
	ErrOverflow = errors.New("length: length overflow")
)

// Width is the size of the length header in bytes.
type Width int

const (
	Uint8  Width = 1
	Uint16 Width = 2
	Uint32 Width = 4
	Uint64 Width = 8
)

// Codec frames byte slices with a length prefix.
type Codec struct {
	width     Width
	maxLength uint64
}

var (
	_ codec.Codec[[]byte] = (*Codec)(nil)
	_ codec.Limited       = (*Codec)(nil)
)

func New(width Width) *Codec {
	switch width {
	case Uint8, Uint16, Uint32, Uint64:
	default:
		panic("width must be 1, 2, 4 or 8")
	}
	return &Codec{
		width: width,
	}
}

// WithMaxLength sets the maximum payload length. Zero means that the payload is bounded only by
// the header width.
//
// Frames announcing a longer payload are rejected as soon as their header is buffered.
func (c *Codec) WithMaxLength(maxLength int) *Codec {
	if maxLength < 0 {
		panic("max length can't be < 0")
	}
	c.maxLength = uint64(maxLength)
	return c
}

// HeaderLen returns the size of the length header in bytes.
func (c *Codec) HeaderLen() int {
	return int(c.width)
}

func (c *Codec) Encode(item []byte, buf *buffer.Buffer) error {
	n := uint64(len(item))
	if n > c.limit() {
		return fmt.Errorf("%w: %d bytes don't fit into %d byte header", ErrOverflow, n, c.width)
	}
	if c.maxLength > 0 && n > c.maxLength {
		return fmt.Errorf("%w: %d bytes, max length is %d", codec.ErrFrameTooLarge, n, c.maxLength)
	}

	header := buf.Reserve(int(c.width) + len(item))
	c.putHeader(header, n)
	buf.Commit(int(c.width))
	_, _ = buf.Write(item)

	return nil
}

func (c *Codec) Decode(buf *buffer.Buffer) ([]byte, bool, error) {
	data := buf.Bytes()
	if len(data) < int(c.width) {
		return nil, false, nil
	}

	n := c.header(data)
	if c.maxLength > 0 && n > c.maxLength {
		return nil, false, fmt.Errorf("%w: header announces %d bytes, max length is %d", codec.ErrFrameTooLarge, n, c.maxLength)
	}
	if n > uint64(math.MaxInt-int(c.width)) {
		return nil, false, fmt.Errorf("%w: header announces %d bytes", ErrOverflow, n)
	}
	if len(data)-int(c.width) < int(n) {
		return nil, false, nil
	}

	buf.Advance(int(c.width))
	return buf.Take(int(n)), true, nil
}

// MaxFrameSize returns the header length plus the maximum payload length, or 0 if no maximum
// payload length is set.
func (c *Codec) MaxFrameSize() int {
	if c.maxLength == 0 {
		return 0
	}
	return int(c.width) + int(c.maxLength)
}

func (c *Codec) Derive() codec.Codec[[]byte] {
	return New(c.width).WithMaxLength(int(c.maxLength))
}

func (c *Codec) limit() uint64 {
	if c.width == Uint64 {
		return math.MaxUint64
	}
	return 1<<(8*uint(c.width)) - 1
}

func (c *Codec) putHeader(b []byte, n uint64) {
	switch c.width {
	case Uint8:
		b[0] = byte(n)
	case Uint16:
		binary.BigEndian.PutUint16(b, uint16(n))
	case Uint32:
		binary.BigEndian.PutUint32(b, uint32(n))
	case Uint64:
		binary.BigEndian.PutUint64(b, n)
	}
}

func (c *Codec) header(b []byte) uint64 {
	switch c.width {
	case Uint8:
		return uint64(b[0])
	case Uint16:
		return uint64(binary.BigEndian.Uint16(b))
	case Uint32:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}
