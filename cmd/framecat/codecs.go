package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/teenjuna/framed"
	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
	bytescodec "github.com/teenjuna/framed/codec/bytes"
	"github.com/teenjuna/framed/codec/length"
	"github.com/teenjuna/framed/codec/lines"
	"github.com/teenjuna/framed/codec/netstring"
	"github.com/teenjuna/framed/internal/recorder"
)

var codecNames = []string{"bytes", "lines", "length", "netstring"}

func newCodec(name string, s settings) (codec.Codec[[]byte], error) {
	switch name {
	case "bytes":
		return bytescodec.New(), nil
	case "lines":
		return lines.New[[]byte]().WithMaxLength(s.MaxLength), nil
	case "length":
		return length.New(length.Width(s.LengthWidth)).WithMaxLength(s.MaxLength), nil
	case "netstring":
		return netstring.New().WithMaxLength(s.MaxLength), nil
	default:
		return nil, fmt.Errorf("unknown codec %q, expected one of %v", name, codecNames)
	}
}

func configFuncs(s settings, logger zerolog.Logger, registerer prometheus.Registerer) []framed.ConfigFunc {
	return []framed.ConfigFunc{
		func(c *framed.Config) {
			if s.MaxFrameSize > 0 {
				c.MaxFrameSize(s.MaxFrameSize)
			}
			if s.HighWaterMark > 0 {
				c.HighWaterMark(s.HighWaterMark)
			}
			if s.ReadSize > 0 {
				c.ReadSize(s.ReadSize)
			}
			c.Logger(logger)
			c.Prometheus(framed.Prometheus(registerer))
		},
	}
}

// recording records every decoded frame into a journal stream.
type recording struct {
	ctx      context.Context
	inner    codec.Codec[[]byte]
	recorder *recorder.Recorder
	stream   string
}

var (
	_ codec.Codec[[]byte]      = (*recording)(nil)
	_ codec.EOFDecoder[[]byte] = (*recording)(nil)
	_ codec.Limited            = (*recording)(nil)
)

func record(
	ctx context.Context,
	inner codec.Codec[[]byte],
	rec *recorder.Recorder,
	stream string,
) codec.Codec[[]byte] {
	if rec == nil {
		return inner
	}
	return &recording{
		ctx:      ctx,
		inner:    inner,
		recorder: rec,
		stream:   stream,
	}
}

func (r *recording) Encode(item []byte, buf *buffer.Buffer) error {
	return r.inner.Encode(item, buf)
}

func (r *recording) Decode(buf *buffer.Buffer) ([]byte, bool, error) {
	return r.record(r.inner.Decode(buf))
}

func (r *recording) DecodeEOF(buf *buffer.Buffer) ([]byte, bool, error) {
	return r.record(codec.DecodeEOF(r.inner, buf))
}

func (r *recording) MaxFrameSize() int {
	return codec.MaxFrameSize(r.inner)
}

func (r *recording) Derive() codec.Codec[[]byte] {
	return &recording{
		ctx:      r.ctx,
		inner:    r.inner.Derive(),
		recorder: r.recorder,
		stream:   r.stream,
	}
}

func (r *recording) record(item []byte, ok bool, err error) ([]byte, bool, error) {
	if err != nil || !ok {
		return item, ok, err
	}
	if err := r.recorder.Record(r.ctx, r.stream, item); err != nil {
		return nil, false, fmt.Errorf("record: %w", err)
	}
	return item, true, nil
}
