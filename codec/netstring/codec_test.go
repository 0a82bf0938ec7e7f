package netstring_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/codec/netstring"
	"github.com/teenjuna/framed/internal/testing/codectest"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestRoundTrip(t *testing.T) {
	var items [][]byte
	for i := range 1000 {
		items = append(items, []byte(strconv.Itoa(i*rand.IntN(1000))))
	}
	items = append(items, []byte{}, []byte(",:,"))

	codectest.RoundTrip(t, netstring.New(), items)
}

func TestEncode(t *testing.T) {
	data := codectest.Encode(t, netstring.New(), [][]byte{[]byte("hello world!"), {}})
	require.Equal(t, string(data), "12:hello world!,0:,")
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"Not a digit":     "1x",
		"Empty length":    ":abc,",
		"Leading zero":    "01:a,",
		"Missing comma":   "3:abc;",
		"Too many digit":  "12345678901234567890",
		"Length overflow": "9223372036854775807:abc",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			buf := buffer.New(0)
			_, _ = buf.WriteString(input)

			_, ok, err := netstring.New().Decode(buf)
			require.False(t, ok)
			require.ErrorIs(t, err, netstring.ErrMalformed)
		})
	}
}

func TestDecodePartial(t *testing.T) {
	for _, input := range []string{"", "1", "12", "12:", "12:hello world!"} {
		buf := buffer.New(0)
		_, _ = buf.WriteString(input)

		_, ok, err := netstring.New().Decode(buf)
		require.Nil(t, err)
		require.False(t, ok)
		require.Equal(t, string(buf.Bytes()), input)
	}
}

func TestMaxLength(t *testing.T) {
	c := netstring.New().WithMaxLength(100)
	require.Equal(t, c.MaxFrameSize(), 3+1+100+1)

	buf := buffer.New(0)
	_, _ = buf.WriteString("101:")
	_, _, err := c.Decode(buf)
	require.ErrorIs(t, err, codec.ErrFrameTooLarge)

	buf.Reset()
	_, _ = buf.WriteString("1000")
	_, _, err = c.Decode(buf)
	require.ErrorIs(t, err, netstring.ErrMalformed)

	err = c.Encode(make([]byte, 101), buf)
	require.ErrorIs(t, err, codec.ErrFrameTooLarge)
}
