package main

import (
	"context"
	"testing"

	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/internal/recorder"
	"github.com/teenjuna/framed/internal/sqlite"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestNewCodec(t *testing.T) {
	s := defaultSettings()
	s.MaxLength = 10

	for _, name := range codecNames {
		c, err := newCodec(name, s)
		require.Nil(t, err)
		require.NotNil(t, c)
	}

	c, err := newCodec("lines", s)
	require.Nil(t, err)
	require.Equal(t, codec.MaxFrameSize(c), 11)

	c, err = newCodec("length", s)
	require.Nil(t, err)
	require.Equal(t, codec.MaxFrameSize(c), 14)

	_, err = newCodec("xml", s)
	require.NotNil(t, err)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()

	journal, err := sqlite.New()
	require.Nil(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	rec := recorder.New(journal)
	inner, err := newCodec("lines", defaultSettings())
	require.Nil(t, err)
	c := record(ctx, inner, rec, "test")

	buf := buffer.New(0)
	_, _ = buf.WriteString("a\nb\nc")

	for _, expected := range []string{"a", "b"} {
		item, ok, err := c.Decode(buf)
		require.Nil(t, err)
		require.True(t, ok)
		require.Equal(t, string(item), expected)
	}

	_, ok, err := c.Decode(buf)
	require.Nil(t, err)
	require.False(t, ok)

	item, ok, err := codec.DecodeEOF(c, buf)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, string(item), "c")

	require.Nil(t, c.Derive().Encode([]byte("d"), buf))
	require.Equal(t, buf.Bytes(), []byte("d\n"))

	require.Nil(t, rec.Close())

	var recorded []string
	for frame, err := range journal.Frames(ctx, "test", 0) {
		require.Nil(t, err)
		recorded = append(recorded, string(frame.Data))
	}
	require.Equal(t, recorded, []string{"a", "b", "c"})

	require.Equal(t, record(ctx, inner, nil, "test"), inner)
}
