package framed

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"
)

// Forward reads items from src and writes them to dst until src ends.
//
// Items are flushed whenever src has no complete frame buffered and is about to read from its
// transport, so a slow source doesn't hold decoded items back. Forward doesn't close dst.
func Forward[Item any](ctx context.Context, src *Reader[Item], dst *Writer[Item]) error {
	for {
		item, ok, err := src.decodeBuffered()
		if err != nil {
			return err
		}
		if !ok {
			if dst.Buffered() > 0 {
				if err := dst.Flush(ctx); err != nil {
					return err
				}
			}
			item, err = src.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}

		if err := dst.WaitReady(ctx); err != nil {
			return err
		}
		if err := dst.Submit(item); err != nil {
			return err
		}
	}

	return dst.Flush(ctx)
}

// Relay forwards items from a to b and from b to a concurrently.
//
// When one direction reaches the end of input, the write half of the opposite transport is
// closed and the other direction keeps running until its own end of input. If either direction
// fails, both transports are closed to unblock the other direction, and the first error is
// returned. Both transports are closed when Relay returns.
func Relay[Item any](ctx context.Context, a, b *Framed[Item, Item]) error {
	group, groupCtx := errgroup.WithContext(ctx)

	stop := context.AfterFunc(groupCtx, func() {
		closeTransport(a.rw)
		closeTransport(b.rw)
	})

	forward := func(src, dst *Framed[Item, Item]) func() error {
		return func() error {
			if err := Forward(groupCtx, src.reader, dst.writer); err != nil {
				return err
			}
			if err := dst.writer.Close(groupCtx); err != nil && !errors.Is(err, ErrClosed) {
				return err
			}
			return nil
		}
	}

	group.Go(forward(a, b))
	group.Go(forward(b, a))

	err := group.Wait()
	stop()
	closeTransport(a.rw)
	closeTransport(b.rw)

	return err
}

func closeTransport(rw io.ReadWriter) {
	if c, ok := rw.(io.Closer); ok {
		_ = c.Close()
	}
}
