// This package contains property checks shared by the codec tests.
package codectest

import (
	"bytes"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/internal/testing/require"
)

// Encode encodes items with c and returns the concatenated frames.
func Encode[Item any](t *testing.T, c codec.Encoder[Item], items []Item) []byte {
	t.Helper()
	buf := buffer.New(0)
	for _, item := range items {
		require.Nil(t, c.Encode(item, buf))
	}
	return slices.Clone(buf.Bytes())
}

// Decode feeds data to d in chunks of the provided sizes (the last size repeats) and returns the
// decoded items. It fails the test if a call that produced no item changed the buffer.
func Decode[Item any](t *testing.T, d codec.Decoder[Item], data []byte, chunks ...int) []Item {
	t.Helper()
	if len(chunks) == 0 {
		chunks = []int{len(data)}
	}

	var (
		buf   = buffer.New(0)
		items = make([]Item, 0)
		pos   = 0
	)
	for i := 0; pos < len(data); i++ {
		n := max(chunks[min(i, len(chunks)-1)], 1)
		n = min(n, len(data)-pos)
		_, _ = buf.Write(data[pos : pos+n])
		pos += n

		for {
			before := slices.Clone(buf.Bytes())
			item, ok, err := d.Decode(buf)
			require.Nil(t, err)
			if !ok {
				if !bytes.Equal(before, buf.Bytes()) {
					t.Fatalf("decoder consumed bytes without producing an item")
				}
				break
			}
			items = append(items, item)
		}
	}

	// The end of input is decoded once, and no bytes may be left after it.
	item, ok, err := codec.DecodeEOF(d, buf)
	require.Nil(t, err)
	if ok {
		items = append(items, item)
	}
	require.Equal(t, buf.Len(), 0)

	return items
}

// RoundTrip encodes items with c and decodes them back with a derived codec, feeding the bytes
// in one chunk, byte by byte and in random chunks.
func RoundTrip[Item any](t *testing.T, c codec.Codec[Item], items []Item) {
	t.Helper()
	data := Encode(t, c, items)

	t.Run("One chunk", func(t *testing.T) {
		require.Equal(t, Decode(t, c.Derive(), data), items)
	})
	t.Run("Byte by byte", func(t *testing.T) {
		require.Equal(t, Decode(t, c.Derive(), data, 1), items)
	})
	t.Run("Random chunks", func(t *testing.T) {
		chunks := make([]int, 0)
		for range len(data) {
			chunks = append(chunks, rand.IntN(64)+1)
		}
		require.Equal(t, Decode(t, c.Derive(), data, chunks...), items)
	})
}
