package framed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/teenjuna/framed/backoff"
	"github.com/teenjuna/framed/buffer"
	"github.com/teenjuna/framed/codec"
)

// Max number of consecutive reads that return neither bytes nor an error.
const maxEmptyReads = 100

// Reader turns a byte stream into a sequence of items.
//
// A Reader is not thread-safe. It may be used concurrently with a [Writer] over the same
// transport if the transport allows concurrent reads and writes.
type Reader[Item any] struct {
	cfg          *Config
	r            io.Reader
	decoder      codec.Decoder[Item]
	buf          *buffer.Buffer
	maxFrameSize int

	// Error returned by the transport together with bytes. It's handled once the buffered frames
	// are consumed.
	pending    error
	eof        bool
	eofDecoded bool
	done       bool
}

// NewReader returns a Reader that reads frames from r and decodes them with d.
//
// The frame size limit is the smaller of the limit declared by d (see [codec.Limited]) and the
// one set by [Config.MaxFrameSize].
func NewReader[Item any](
	r io.Reader,
	d codec.Decoder[Item],
	configFuncs ...ConfigFunc,
) *Reader[Item] {
	return newReader(r, d, newConfig(configFuncs...))
}

func newReader[Item any](r io.Reader, d codec.Decoder[Item], cfg *Config) *Reader[Item] {
	if r == nil {
		panic("reader can't be nil")
	}
	if d == nil {
		panic("decoder can't be nil")
	}

	maxFrameSize := codec.MaxFrameSize(d)
	if cfg.maxFrameSize > 0 && (maxFrameSize == 0 || cfg.maxFrameSize < maxFrameSize) {
		maxFrameSize = cfg.maxFrameSize
	}

	return &Reader[Item]{
		cfg:          cfg,
		r:            r,
		decoder:      d,
		buf:          buffer.New(cfg.readBufferSize),
		maxFrameSize: maxFrameSize,
	}
}

// Next returns the next item.
//
// Frames that are already buffered are returned before the transport is read again. At the end
// of input Next returns [io.EOF].
//
// Transport failures are returned as [*TransportError] and decode failures as [*DecodeError].
// Both end the sequence: the error is returned once and then Next returns [io.EOF]. Context
// errors, deadlines and [ErrWouldBlock] (once the backoff policy gives up) are returned without
// ending the sequence, and Next may be called again.
func (r *Reader[Item]) Next(ctx context.Context) (Item, error) {
	var zero Item

	if r.done {
		return zero, io.EOF
	}

	for {
		if r.eof {
			return r.decodeEOF()
		}

		item, ok, err := r.decodeBuffered()
		if err != nil || ok {
			return item, err
		}

		if err := r.pending; err != nil {
			r.pending = nil
			if err := r.handle(err); err != nil {
				return zero, err
			}
			continue
		}

		if r.maxFrameSize > 0 && r.buf.Len() >= r.maxFrameSize {
			err := fmt.Errorf(
				"%w: %d bytes buffered without a complete frame, max frame size is %d",
				codec.ErrFrameTooLarge, r.buf.Len(), r.maxFrameSize,
			)
			return zero, r.fail(kindDecode, &DecodeError{Err: err})
		}

		if err := ctx.Err(); err != nil {
			return zero, err
		}

		n, err := r.fill(ctx)
		if err != nil {
			if n > 0 {
				r.pending = err
				continue
			}
			if err := r.handle(err); err != nil {
				return zero, err
			}
		}
	}
}

// All returns a sequence of items produced by [Reader.Next]. The sequence stops after the first
// error.
func (r *Reader[Item]) All(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for {
			item, err := r.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// Buffered returns a copy of the bytes that have been read but not consumed by the decoder.
func (r *Reader[Item]) Buffered() []byte {
	return slices.Clone(r.buf.Bytes())
}

// decodeBuffered decodes the next item from the bytes that are already buffered. It never reads
// from the transport and leaves the end of input to [Reader.Next].
func (r *Reader[Item]) decodeBuffered() (Item, bool, error) {
	var zero Item

	if r.done || r.eof {
		return zero, false, nil
	}

	item, ok, err := r.decoder.Decode(r.buf)
	if err != nil {
		return zero, false, r.fail(kindDecode, &DecodeError{Err: err})
	}
	if !ok {
		return zero, false, nil
	}

	r.cfg.metrics.framesRead()
	return item, true, nil
}

// fill reads from the transport directly into the spare capacity of the buffer.
func (r *Reader[Item]) fill(ctx context.Context) (int, error) {
	space := r.buf.Reserve(r.cfg.readSize)
	if r.maxFrameSize > 0 {
		space = space[:min(len(space), r.maxFrameSize-r.buf.Len())]
	}

	var (
		policy backoff.Policy
		empty  int
	)
	for {
		n, err := r.r.Read(space)
		if n < 0 || n > len(space) {
			return 0, fmt.Errorf("invalid read result %d", n)
		}
		if n > 0 {
			r.buf.Commit(n)
			r.cfg.metrics.bytesRead(n)
			return n, err
		}

		switch {
		case err == nil:
			empty += 1
			if empty >= maxEmptyReads {
				return 0, io.ErrNoProgress
			}
		case isWouldBlock(err):
			if policy == nil {
				policy = r.cfg.backoff.Derive()
			}
			if !policy.Wait(ctx) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return 0, ctxErr
				}
				return 0, err
			}
		default:
			return 0, err
		}
	}
}

// handle processes a transport error. It returns nil if the reader should continue.
func (r *Reader[Item]) handle(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isTemporary(err):
		return &TransportError{Op: "read", Err: err}
	default:
		return r.fail(kindTransport, &TransportError{Op: "read", Err: err})
	}
}

func (r *Reader[Item]) decodeEOF() (Item, error) {
	var zero Item

	if !r.eofDecoded {
		r.eofDecoded = true
		item, ok, err := codec.DecodeEOF(r.decoder, r.buf)
		if err != nil {
			return zero, r.fail(kindDecode, &DecodeError{Err: err})
		}
		if ok {
			r.cfg.metrics.framesRead()
			return item, nil
		}
	}

	if n := r.buf.Len(); n > 0 {
		err := fmt.Errorf("%w: %d bytes", codec.ErrUnexpectedEOF, n)
		return zero, r.fail(kindDecode, &DecodeError{Err: err})
	}

	r.done = true
	r.cfg.logger.Debug().Msg("end of input")

	return zero, io.EOF
}

func (r *Reader[Item]) fail(kind string, err error) error {
	r.done = true
	r.cfg.metrics.error(kind)
	r.cfg.logger.Warn().Err(err).Int("buffered", r.buf.Len()).Msg("read failed")
	return err
}
