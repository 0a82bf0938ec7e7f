// This package contains a codec for self-delimiting JSON documents.
//
// Encode writes every item as a single JSON document followed by a newline. Decode accepts any
// whitespace between documents.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

const format = "json"

// Codec encodes and decodes items as JSON documents.
//
// Objects, arrays and strings are scanned incrementally, so a large document arriving in small
// reads is parsed once it's complete.
type Codec[Item any] struct {
	escapeHTML bool
	strict     bool
	scan       scanner
}

var (
	_ codec.Codec[any]      = (*Codec[any])(nil)
	_ codec.EOFDecoder[any] = (*Codec[any])(nil)
)

func New[Item any]() *Codec[Item] {
	return &Codec[Item]{
		escapeHTML: true,
	}
}

// WithEscapeHTML controls whether problematic HTML characters are escaped inside JSON strings.
func (c *Codec[Item]) WithEscapeHTML(escape bool) *Codec[Item] {
	c.escapeHTML = escape
	return c
}

// WithDisallowUnknownFields controls whether documents with fields that don't match the item type
// are rejected.
func (c *Codec[Item]) WithDisallowUnknownFields(strict bool) *Codec[Item] {
	c.strict = strict
	return c
}

func (c *Codec[Item]) Encode(item Item, buf *buffer.Buffer) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(c.escapeHTML)

	// Encoder marshals the whole document before writing it, so a failure leaves buf untouched.
	if err := enc.Encode(item); err != nil {
		return codec.EncodeFailed(format, err)
	}

	return nil
}

func (c *Codec[Item]) Decode(buf *buffer.Buffer) (Item, bool, error) {
	return c.decode(buf, false)
}

func (c *Codec[Item]) DecodeEOF(buf *buffer.Buffer) (Item, bool, error) {
	item, ok, err := c.decode(buf, true)
	if ok || err != nil {
		return item, ok, err
	}

	// Trailing whitespace is not a truncated document.
	if len(bytes.TrimLeft(buf.Bytes(), whitespace)) == 0 {
		buf.Advance(buf.Len())
	}

	return item, false, nil
}

func (c *Codec[Item]) Derive() codec.Codec[Item] {
	return New[Item]().
		WithEscapeHTML(c.escapeHTML).
		WithDisallowUnknownFields(c.strict)
}

const whitespace = " \t\r\n"

func (c *Codec[Item]) decode(buf *buffer.Buffer, eof bool) (Item, bool, error) {
	var item Item

	data := buf.Bytes()
	value := bytes.TrimLeft(data, whitespace)
	if len(value) == 0 {
		return item, false, nil
	}

	start := len(data) - len(value)
	switch value[0] {
	case '{', '[', '"':
		n := c.scan.next(value)
		if n == 0 {
			return item, false, nil
		}
		data = data[:start+n]
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(&item); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return item, false, nil
		}
		return item, false, codec.DecodeFailed(format, err)
	}

	end := int(dec.InputOffset())
	if end == len(data) && !eof && isNumber(value[0]) {
		// More digits may follow.
		var zero Item
		return zero, false, nil
	}

	buf.Advance(end)
	return item, true, nil
}

func isNumber(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9')
}

// scanner finds the end of a compound value at the front of the buffer. It keeps its position
// between calls, so every byte is scanned once.
type scanner struct {
	offset   int
	depth    int
	inString bool
	escaped  bool
}

// next continues scanning value and returns its length, or 0 if the value isn't complete yet.
func (s *scanner) next(value []byte) int {
	if s.offset > len(value) {
		*s = scanner{}
	}

	for i := s.offset; i < len(value); i++ {
		b := value[i]
		switch {
		case s.inString:
			switch {
			case s.escaped:
				s.escaped = false
			case b == '\\':
				s.escaped = true
			case b == '"':
				s.inString = false
				if s.depth == 0 {
					*s = scanner{}
					return i + 1
				}
			}
		case b == '"':
			s.inString = true
		case b == '{' || b == '[':
			s.depth += 1
		case b == '}' || b == ']':
			s.depth -= 1
			if s.depth <= 0 {
				*s = scanner{}
				return i + 1
			}
		}
	}

	s.offset = len(value)
	return 0
}
