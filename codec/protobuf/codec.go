// This package contains a codec for protocol buffer messages.
//
// Frame format: the size of the encoded message as a protobuf varint, followed by the message.
// This is the same delimited format as used by protodelim and the Java writeDelimitedTo.
package protobuf

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

const format = "protobuf"

type Codec[M any, P message[M]] struct {
	maxLength int
	scratch   []byte
}

var (
	_ codec.Codec[*wrapperspb.BytesValue] = (*Codec[wrapperspb.BytesValue, *wrapperspb.BytesValue])(nil)
	_ codec.Limited                       = (*Codec[wrapperspb.BytesValue, *wrapperspb.BytesValue])(nil)
)

func New[M any, P message[M]]() *Codec[M, P] {
	return &Codec[M, P]{}
}

// WithMaxLength sets the maximum size of an encoded message. Zero means unbounded.
func (c *Codec[M, P]) WithMaxLength(maxLength int) *Codec[M, P] {
	if maxLength < 0 {
		panic("max length can't be < 0")
	}
	c.maxLength = maxLength
	return c
}

func (c *Codec[M, P]) Encode(item P, buf *buffer.Buffer) error {
	size := proto.Size(item)
	if c.maxLength > 0 && size > c.maxLength {
		return fmt.Errorf("%w: %d bytes, max length is %d", codec.ErrFrameTooLarge, size, c.maxLength)
	}

	b := protowire.AppendVarint(c.scratch[:0], uint64(size))
	b, err := proto.MarshalOptions{}.MarshalAppend(b, item)
	if err != nil {
		return codec.EncodeFailed(format, err)
	}
	c.scratch = b

	_, _ = buf.Write(b)
	return nil
}

func (c *Codec[M, P]) Decode(buf *buffer.Buffer) (P, bool, error) {
	data := buf.Bytes()
	if len(data) == 0 {
		return nil, false, nil
	}

	size, n := protowire.ConsumeVarint(data)
	if n < 0 {
		err := protowire.ParseError(n)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, nil
		}
		return nil, false, codec.DecodeFailed(format, err)
	}
	if c.maxLength > 0 && size > uint64(c.maxLength) {
		return nil, false, fmt.Errorf("%w: prefix announces %d bytes, max length is %d", codec.ErrFrameTooLarge, size, c.maxLength)
	}
	if size > uint64(len(data)-n) {
		return nil, false, nil
	}

	item := P(new(M))
	if err := proto.Unmarshal(data[n:n+int(size)], item); err != nil {
		return nil, false, codec.DecodeFailed(format, err)
	}

	buf.Advance(n + int(size))
	return item, true, nil
}

// MaxFrameSize returns the max length plus the size of its varint prefix, or 0 if messages are
// unbounded.
func (c *Codec[M, P]) MaxFrameSize() int {
	if c.maxLength == 0 {
		return 0
	}
	return protowire.SizeVarint(uint64(c.maxLength)) + c.maxLength
}

func (c *Codec[M, P]) Derive() codec.Codec[P] {
	return New[M, P]().WithMaxLength(c.maxLength)
}

type message[M any] interface {
	*M
	proto.Message
}
