// This package contains a codec that splits a byte stream into lines.
//
// The wire format is the raw bytes of each line followed by a single terminator byte ('\n' by
// default). The terminator is not part of the decoded item.
package lines

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

var (
	// ErrLineTooLong is returned by Decode when more than the maximum line length has been buffered
	// without a terminator.
	ErrLineTooLong = errors.New("lines: line too long")
	// ErrInvalidLine is returned by Encode when the line contains the terminator or is longer than
	// the maximum line length.
	ErrInvalidLine = errors.New("lines: invalid line")
)

// Codec decodes lines into strings or byte slices.
//
// By default lines are unbounded and a final line without a terminator is yielded at the end of
// input. Use [Codec.WithStrictEOF] to treat it as an error instead.
type Codec[Item string | []byte] struct {
	maxLength  int
	terminator byte
	strict     bool
}

var (
	_ codec.Codec[string]      = (*Codec[string])(nil)
	_ codec.EOFDecoder[[]byte] = (*Codec[[]byte])(nil)
	_ codec.Limited            = (*Codec[string])(nil)
)

func New[Item string | []byte]() *Codec[Item] {
	return &Codec[Item]{
		terminator: '\n',
	}
}

// WithMaxLength sets the maximum length of a line, terminator excluded. Zero means unbounded.
func (c *Codec[Item]) WithMaxLength(maxLength int) *Codec[Item] {
	if maxLength < 0 {
		panic("max length can't be < 0")
	}
	c.maxLength = maxLength
	return c
}

// WithTerminator sets the byte that ends a line.
func (c *Codec[Item]) WithTerminator(terminator byte) *Codec[Item] {
	c.terminator = terminator
	return c
}

// WithStrictEOF controls whether trailing bytes without a terminator at the end of input are an
// error ([codec.ErrUnexpectedEOF]) rather than a final line.
func (c *Codec[Item]) WithStrictEOF(strict bool) *Codec[Item] {
	c.strict = strict
	return c
}

func (c *Codec[Item]) Encode(item Item, buf *buffer.Buffer) error {
	line := []byte(item)
	if c.maxLength > 0 && len(line) > c.maxLength {
		return fmt.Errorf("%w: %d bytes exceed max length %d", ErrInvalidLine, len(line), c.maxLength)
	}
	if bytes.IndexByte(line, c.terminator) >= 0 {
		return fmt.Errorf("%w: line contains terminator %q", ErrInvalidLine, c.terminator)
	}

	_, _ = buf.Write(line)
	_ = buf.WriteByte(c.terminator)
	return nil
}

func (c *Codec[Item]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	var zero Item

	data := buf.Bytes()
	scan := data
	if c.maxLength > 0 && len(scan) > c.maxLength+1 {
		scan = scan[:c.maxLength+1]
	}

	i := bytes.IndexByte(scan, c.terminator)
	if i < 0 {
		if c.maxLength > 0 && len(data) > c.maxLength {
			return zero, false, fmt.Errorf(
				"%w: %d bytes without terminator, max length is %d",
				ErrLineTooLong, len(data), c.maxLength,
			)
		}
		return zero, false, nil
	}

	line := buf.Take(i + 1)
	return Item(line[:i:i]), true, nil
}

func (c *Codec[Item]) DecodeEOF(buf *buffer.Buffer) (Item, bool, error) {
	item, ok, err := c.Decode(buf)
	if ok || err != nil || buf.Len() == 0 {
		return item, ok, err
	}

	if c.strict {
		return item, false, fmt.Errorf("%w: %d bytes without terminator", codec.ErrUnexpectedEOF, buf.Len())
	}

	return Item(buf.Take(buf.Len())), true, nil
}

// MaxFrameSize returns the maximum line length plus one byte for the terminator, or 0 if lines
// are unbounded.
func (c *Codec[Item]) MaxFrameSize() int {
	if c.maxLength == 0 {
		return 0
	}
	return c.maxLength + 1
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New[Item]().
		WithMaxLength(c.maxLength).
		WithTerminator(c.terminator).
		WithStrictEOF(c.strict)
}
