package lines_test

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/codec/lines"
	"github.com/teenjuna/framed/internal/testing/codectest"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestRoundTrip(t *testing.T) {
	var items []string
	for i := range 1000 {
		items = append(items, strings.Repeat(strconv.Itoa(i), rand.IntN(20)))
	}

	run(t, "Strings", func(t *testing.T) {
		codectest.RoundTrip(t, lines.New[string](), items)
	})

	run(t, "Bytes", func(t *testing.T) {
		var byteItems [][]byte
		for _, item := range items {
			byteItems = append(byteItems, []byte(item))
		}
		codectest.RoundTrip(t, lines.New[[]byte]().WithTerminator(0), byteItems)
	})
}

func TestDecode(t *testing.T) {
	run(t, "Trailing line without terminator", func(t *testing.T) {
		items := codectest.Decode(t, lines.New[string](), []byte("foo\nbar\nbaz"))
		require.Equal(t, items, []string{"foo", "bar", "baz"})
	})

	run(t, "No trailing item after terminator", func(t *testing.T) {
		items := codectest.Decode(t, lines.New[string](), []byte("foo\nbar\n"))
		require.Equal(t, items, []string{"foo", "bar"})
	})

	run(t, "Empty lines", func(t *testing.T) {
		items := codectest.Decode(t, lines.New[string](), []byte("\n\na\n"), 1)
		require.Equal(t, items, []string{"", "", "a"})
	})

	run(t, "Partial line", func(t *testing.T) {
		codec := lines.New[string]()
		buf := buffer.New(0)
		_, _ = buf.WriteString("partial")

		for range 3 {
			item, ok, err := codec.Decode(buf)
			require.Nil(t, err)
			require.False(t, ok)
			require.Equal(t, item, "")
			require.Equal(t, string(buf.Bytes()), "partial")
		}
	})

	run(t, "Decoded bytes don't alias the buffer", func(t *testing.T) {
		codec := lines.New[[]byte]()
		buf := buffer.New(0)
		_, _ = buf.WriteString("abc\ndef")

		item, ok, err := codec.Decode(buf)
		require.Nil(t, err)
		require.True(t, ok)

		_, _ = buf.WriteString("ghi")
		item = append(item, 'x')
		require.Equal(t, string(item), "abcx")
		require.Equal(t, string(buf.Bytes()), "defghi")
	})
}

func TestMaxLength(t *testing.T) {
	const maxLength = 16

	run(t, "Line of max length", func(t *testing.T) {
		line := strings.Repeat("a", maxLength)
		items := codectest.Decode(
			t,
			lines.New[string]().WithMaxLength(maxLength),
			[]byte(line+"\n"+line+"\n"),
			3,
		)
		require.Equal(t, items, []string{line, line})
	})

	run(t, "Line too long", func(t *testing.T) {
		codec := lines.New[string]().WithMaxLength(maxLength)
		buf := buffer.New(0)

		for range maxLength {
			_ = buf.WriteByte('a')
			_, ok, err := codec.Decode(buf)
			require.Nil(t, err)
			require.False(t, ok)
		}

		_ = buf.WriteByte('a')
		_, ok, err := codec.Decode(buf)
		require.False(t, ok)
		require.ErrorIs(t, err, lines.ErrLineTooLong)
	})

	run(t, "Terminator after max length", func(t *testing.T) {
		codec := lines.New[string]().WithMaxLength(maxLength)
		buf := buffer.New(0)
		_, _ = buf.WriteString(strings.Repeat("a", maxLength+1) + "\n")

		_, _, err := codec.Decode(buf)
		require.ErrorIs(t, err, lines.ErrLineTooLong)
	})

	run(t, "Max frame size", func(t *testing.T) {
		require.Equal(t, lines.New[string]().MaxFrameSize(), 0)
		require.Equal(t, lines.New[string]().WithMaxLength(maxLength).MaxFrameSize(), maxLength+1)
	})
}

func TestStrictEOF(t *testing.T) {
	c := lines.New[string]().WithStrictEOF(true)
	buf := buffer.New(0)
	_, _ = buf.WriteString("foo\nbar")

	item, ok, err := c.DecodeEOF(buf)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, item, "foo")

	_, ok, err = c.DecodeEOF(buf)
	require.False(t, ok)
	require.ErrorIs(t, err, codec.ErrUnexpectedEOF)
}

func TestEncode(t *testing.T) {
	run(t, "Appends terminator", func(t *testing.T) {
		data := codectest.Encode(t, lines.New[string]().WithTerminator('\r'), []string{"Hello", "World"})
		require.Equal(t, string(data), "Hello\rWorld\r")
	})

	run(t, "Rejects terminator", func(t *testing.T) {
		buf := buffer.New(0)
		_, _ = buf.WriteString("kept\n")

		err := lines.New[string]().Encode("a\nb", buf)
		require.ErrorIs(t, err, lines.ErrInvalidLine)
		require.Equal(t, string(buf.Bytes()), "kept\n")
	})

	run(t, "Rejects long line", func(t *testing.T) {
		buf := buffer.New(0)
		err := lines.New[string]().WithMaxLength(3).Encode("abcd", buf)
		require.ErrorIs(t, err, lines.ErrInvalidLine)
		require.Equal(t, buf.Len(), 0)
	})
}

func TestOptionValidation(t *testing.T) {
	require.PanicWithError(t, "max length can't be < 0", func() {
		_ = lines.New[string]().WithMaxLength(-1)
	})
}

func TestDerive(t *testing.T) {
	c := lines.New[string]().WithMaxLength(10).WithTerminator(';').WithStrictEOF(true)
	derived := c.Derive()
	require.Equal(t, derived, codec.Codec[string](c))
	require.True(t, derived != codec.Codec[string](c))
}

func run(t *testing.T, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		t.Helper()
		fn(t)
	})
}
