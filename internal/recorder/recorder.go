// This package batches frames in memory and writes them to a journal in the background.
package recorder

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/framed/internal/sqlite"
)

var (
	ErrClosed = errors.New("recorder is closed")
)

// Journal is the destination of the batches. It's implemented by [sqlite.Journal].
type Journal interface {
	Write(ctx context.Context, entries ...sqlite.Entry) error
}

// Recorder collects entries from many goroutines and writes them in batches: when a batch reaches
// the flush size, when the flush timeout passes, on [Recorder.Flush] and on [Recorder.Close].
//
// A failed write is retried with the backoff policy. Once the policy gives up, the recorder stops
// and every method returns the write error.
type Recorder struct {
	cfg     *Config
	journal Journal

	closing *atomic.Bool
	entries *atomic.Int64

	push  chan sqlite.Entry
	flush chan chan error

	ctx   context.Context
	stop  context.CancelCauseFunc
	group *errgroup.Group
}

func New(journal Journal, configFuncs ...ConfigFunc) *Recorder {
	if journal == nil {
		panic("journal can't be nil")
	}

	cfg := newConfig(configFuncs...)
	ctx, stop := context.WithCancelCause(context.Background())

	r := Recorder{
		cfg:     cfg,
		journal: journal,
		closing: new(atomic.Bool),
		entries: new(atomic.Int64),
		push:    make(chan sqlite.Entry, cfg.flushSize),
		flush:   make(chan chan error),
		ctx:     ctx,
		stop:    stop,
		group:   new(errgroup.Group),
	}

	r.group.Go(func() error {
		err := r.worker()
		if err != nil {
			r.stop(err)
		}
		return err
	})

	return &r
}

// Record adds a frame of the stream to the current batch. It blocks while the batch is full and
// being written.
func (r *Recorder) Record(ctx context.Context, stream string, data []byte) error {
	if r.closing.Load() {
		return ErrClosed
	}
	if r.ctx.Err() != nil {
		return context.Cause(r.ctx)
	}

	select {
	case r.push <- sqlite.Entry{Stream: stream, Data: data}:
		return nil
	case <-r.ctx.Done():
		return context.Cause(r.ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush writes the entries recorded before the call.
func (r *Recorder) Flush(ctx context.Context) error {
	res := make(chan error, 1)

	select {
	case r.flush <- res:
	case <-r.ctx.Done():
		return context.Cause(r.ctx)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written returns the number of entries written to the journal.
func (r *Recorder) Written() int64 {
	return r.entries.Load()
}

// Close writes the remaining entries and stops the recorder. It doesn't close the journal.
//
// Entries recorded concurrently with Close may be dropped.
func (r *Recorder) Close() error {
	if r.closing.Swap(true) {
		return ErrClosed
	}

	r.stop(ErrClosed)

	return r.group.Wait()
}

func (r *Recorder) worker() error {
	var (
		batch = make([]sqlite.Entry, 0, r.cfg.flushSize)
		tick  = ticker(r.cfg.flushTimeout)
	)
	for {
		var (
			flush   bool
			last    bool
			flushCh chan error
		)
		select {
		case <-r.ctx.Done():
			batch = r.drain(batch)
			if len(batch) == 0 {
				return nil
			}
			flush, last = true, true
		case flushCh = <-r.flush:
			batch = r.drain(batch)
			flush = len(batch) != 0
			if !flush {
				flushCh <- nil
			}
		case <-tick:
			flush = len(batch) != 0
		case entry := <-r.push:
			batch = append(batch, entry)
			flush = len(batch) >= r.cfg.flushSize
		}

		if !flush {
			continue
		}

		err := r.write(batch)
		if flushCh != nil {
			flushCh <- err
		}
		if err != nil {
			return err
		}

		clear(batch)
		batch = batch[:0]

		if last {
			return nil
		}
	}
}

// drain moves the entries that are already pushed into the batch.
func (r *Recorder) drain(batch []sqlite.Entry) []sqlite.Entry {
	for {
		select {
		case entry := <-r.push:
			batch = append(batch, entry)
		default:
			return batch
		}
	}
}

func (r *Recorder) write(batch []sqlite.Entry) error {
	// Entries are written even while closing.
	ctx := context.WithoutCancel(r.ctx)
	policy := r.cfg.backoff.Derive()

	for {
		err := r.journal.Write(ctx, batch...)
		if err == nil {
			r.entries.Add(int64(len(batch)))
			r.cfg.logger.Debug().Int("entries", len(batch)).Msg("batch written")
			return nil
		}

		r.cfg.logger.Warn().Err(err).Int("entries", len(batch)).Msg("batch write failed")
		if errors.Is(err, sqlite.ErrClosed) || !policy.Wait(ctx) {
			return err
		}
	}
}

func ticker(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return make(<-chan time.Time)
	}
	return time.Tick(d)
}
