// This package contains a codec for netstrings.
//
// Frame format: the payload length as ASCII decimal digits without leading zeros, a colon, the
// payload and a trailing comma. For example "hello" is framed as "5:hello,".
package netstring

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

var (
	// ErrMalformed is returned by Decode when the buffered bytes can't start a valid netstring.
	ErrMalformed = errors.New("netstring: malformed")
)

// Max number of digits of an int.
const maxDigits = 19

type Codec struct {
	maxLength int
}

var (
	_ codec.Codec[[]byte] = (*Codec)(nil)
	_ codec.Limited       = (*Codec)(nil)
)

func New() *Codec {
	return &Codec{}
}

// WithMaxLength sets the maximum payload length. Zero means unbounded.
func (c *Codec) WithMaxLength(maxLength int) *Codec {
	if maxLength < 0 {
		panic("max length can't be < 0")
	}
	c.maxLength = maxLength
	return c
}

func (c *Codec) Encode(item []byte, buf *buffer.Buffer) error {
	if c.maxLength > 0 && len(item) > c.maxLength {
		return fmt.Errorf("%w: %d bytes, max length is %d", codec.ErrFrameTooLarge, len(item), c.maxLength)
	}

	header := strconv.AppendInt(buf.Reserve(maxDigits + 2 + len(item))[:0], int64(len(item)), 10)
	header = append(header, ':')
	buf.Commit(len(header))
	_, _ = buf.Write(item)
	_ = buf.WriteByte(',')

	return nil
}

func (c *Codec) Decode(buf *buffer.Buffer) ([]byte, bool, error) {
	data := buf.Bytes()
	digits := c.digits()

	colon := bytes.IndexByte(data[:min(len(data), digits+1)], ':')
	if colon < 0 {
		if err := validDigits(data[:min(len(data), digits)]); err != nil {
			return nil, false, err
		}
		if len(data) > digits {
			return nil, false, fmt.Errorf("%w: length has more than %d digits", ErrMalformed, digits)
		}
		return nil, false, nil
	}

	if colon == 0 {
		return nil, false, fmt.Errorf("%w: empty length", ErrMalformed)
	}
	if err := validDigits(data[:colon]); err != nil {
		return nil, false, err
	}
	if colon > 1 && data[0] == '0' {
		return nil, false, fmt.Errorf("%w: leading zero in length", ErrMalformed)
	}

	n, err := strconv.Atoi(string(data[:colon]))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if c.maxLength > 0 && n > c.maxLength {
		return nil, false, fmt.Errorf("%w: netstring announces %d bytes, max length is %d", codec.ErrFrameTooLarge, n, c.maxLength)
	}

	if n > math.MaxInt-colon-2 {
		return nil, false, fmt.Errorf("%w: length %d overflows", ErrMalformed, n)
	}
	if len(data)-colon-1 <= n {
		return nil, false, nil
	}
	end := colon + 1 + n
	if data[end] != ',' {
		return nil, false, fmt.Errorf("%w: expected ',' after %d bytes, got %q", ErrMalformed, n, data[end])
	}

	buf.Advance(colon + 1)
	item := buf.Take(n)
	buf.Advance(1)

	return item, true, nil
}

// MaxFrameSize returns the size of the longest allowed netstring, or 0 if netstrings are
// unbounded.
func (c *Codec) MaxFrameSize() int {
	if c.maxLength == 0 {
		return 0
	}
	return c.digits() + 1 + c.maxLength + 1
}

func (c *Codec) Derive() codec.Codec[[]byte] {
	return New().WithMaxLength(c.maxLength)
}

func (c *Codec) digits() int {
	if c.maxLength == 0 {
		return maxDigits
	}
	return len(strconv.Itoa(c.maxLength))
}

func validDigits(b []byte) error {
	for _, d := range b {
		if d < '0' || d > '9' {
			return fmt.Errorf("%w: unexpected %q in length", ErrMalformed, d)
		}
	}
	return nil
}
