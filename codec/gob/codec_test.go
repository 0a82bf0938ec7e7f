package gob_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/codec/gob"
	"github.com/teenjuna/framed/internal/testing/codectest"
	"github.com/teenjuna/framed/internal/testing/require"
)

type Item struct {
	ID string
	N1 int
	N2 float64
}

func TestRoundTrip(t *testing.T) {
	var items []Item
	for i := range 1000 {
		items = append(items, Item{
			ID: strconv.Itoa(i),
			N1: rand.IntN(1000) + 1,
			N2: rand.Float64() * 1000,
		})
	}

	codectest.RoundTrip(t, gob.New[Item](), items)
}

func TestDecodeCorrupted(t *testing.T) {
	buf := buffer.New(0)
	_, _ = buf.Write([]byte{0, 0, 0, 3, 0xff, 0xff, 0xff})

	_, ok, err := gob.New[Item]().Decode(buf)
	require.False(t, ok)
	serdeErr := require.ErrorAs[*codec.SerdeError](t, err)
	require.Equal(t, serdeErr.Op, "decode")
}

func TestEncodeUnsupported(t *testing.T) {
	buf := buffer.New(0)
	err := gob.New[func()]().Encode(func() {}, buf)
	require.NotNil(t, err)
	require.Equal(t, buf.Len(), 0)
}

func TestMaxLength(t *testing.T) {
	c := gob.New[Item]().WithMaxLength(16)
	require.Equal(t, c.MaxFrameSize(), 20)
	require.Equal(t, codec.MaxFrameSize(c.Derive()), 20)

	buf := buffer.New(0)
	err := c.Encode(Item{ID: "a long identifier that doesn't fit"}, buf)
	require.ErrorIs(t, err, codec.ErrFrameTooLarge)
	require.Equal(t, buf.Len(), 0)
}
