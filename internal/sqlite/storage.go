// This package contains the frame journal: a SQLite table of frames grouped into named streams.
//
// The journal records raw frame payloads as they pass through a transport so that they can be
// inspected or replayed later.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrClosed is returned by Journal methods when the journal has been closed.
	ErrClosed = errors.New("journal is closed")
)

const (
	memory = ":memory:"
)

// Journal is a persistent frame log backed by SQLite.
type Journal struct {
	cfg *Config
	db  *sql.DB
}

// New creates a new Journal with the provided configuration functions.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Conns: 1
//   - Retain: 0 (unlimited)
//   - Durable: false
//
// Returns an error if the SQLite database cannot be opened or initialized.
func New(configFuncs ...ConfigFunc) (*Journal, error) {
	cfg := &Config{}
	cfg.File(memory)
	cfg.Conns(1)
	cfg.Retain(0)
	cfg.Durable(false)
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	journal := Journal{
		cfg: cfg,
		db:  db,
	}

	return &journal, nil
}

// Append records frames at the end of the stream in a single transaction.
//
// Returns [ErrClosed] if the journal has been closed.
func (j *Journal) Append(ctx context.Context, stream string, frames ...[]byte) error {
	entries := make([]Entry, len(frames))
	for i, data := range frames {
		entries[i] = Entry{Stream: stream, Data: data}
	}
	return j.Write(ctx, entries...)
}

// Write records entries of any streams in a single transaction, in the provided order.
//
// Returns [ErrClosed] if the journal has been closed.
func (j *Journal) Write(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return closedOr(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(
		ctx,
		`
		insert into frame (
			stream,
			data,
			size,
			recorded_at
		) values (
			:stream,
			:data,
			:size,
			:recorded_at
		)
		`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var (
		now     = toTimestamp(time.Now())
		streams = make(map[string]struct{})
	)
	for _, entry := range entries {
		data := entry.Data
		if data == nil {
			data = []byte{}
		}
		if _, err := stmt.ExecContext(
			ctx,
			sql.Named("stream", entry.Stream),
			sql.Named("data", data),
			sql.Named("size", len(data)),
			sql.Named("recorded_at", now),
		); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		streams[entry.Stream] = struct{}{}
	}

	if j.cfg.retainRows > 0 {
		for stream := range streams {
			if _, err := tx.ExecContext(
				ctx,
				`
				delete from frame
				where
					stream = :stream and
					seq <= (
						select seq from frame
						where stream = :stream
						order by seq desc
						limit 1 offset :retain
					)
				`,
				sql.Named("stream", stream),
				sql.Named("retain", j.cfg.retainRows),
			); err != nil {
				return fmt.Errorf("trim: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Frames returns the frames of the stream in the order they were appended, starting after the
// provided sequence number. An empty stream name selects frames of all streams.
func (j *Journal) Frames(ctx context.Context, stream string, after int64) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		rows, err := j.db.QueryContext(
			ctx,
			`
			select seq, stream, data, recorded_at from frame
			where
				seq > :after and
				(:stream = '' or stream = :stream)
			order by
				seq asc
			`,
			sql.Named("after", after),
			sql.Named("stream", stream),
		)
		if err != nil {
			yield(Frame{}, closedOr(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				f          Frame
				recordedAt int64
			)
			if err := rows.Scan(&f.Seq, &f.Stream, &f.Data, &recordedAt); err != nil {
				yield(Frame{}, fmt.Errorf("scan: %w", err))
				return
			}
			f.RecordedAt = fromTimestamp(recordedAt)

			if !yield(f, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(Frame{}, fmt.Errorf("scan: %w", err))
		}
	}
}

// Streams returns the names of all streams with at least one frame, sorted by name.
func (j *Journal) Streams(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, "select distinct stream from frame order by stream")
	if err != nil {
		return nil, closedOr(err)
	}
	defer rows.Close()

	streams := make([]string, 0)
	for rows.Next() {
		var stream string
		if err := rows.Scan(&stream); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		streams = append(streams, stream)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return streams, nil
}

// Stats returns current journal statistics.
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	var (
		frames int
		bytes  int
		last   int64
	)
	err := j.db.QueryRowContext(
		ctx,
		`
		select
			coalesce(count(*), 0) as frames,
			coalesce(sum(size), 0) as bytes,
			coalesce(max(seq), 0) as last_seq
		from
			frame
		`,
	).Scan(
		&frames,
		&bytes,
		&last,
	)
	if err != nil {
		return nil, closedOr(err)
	}

	stats := Stats{
		Frames:  frames,
		Bytes:   bytes,
		LastSeq: last,
	}

	return &stats, nil
}

// Close closes the underlying SQLite database.
//
// After closing, all methods on Journal will return [ErrClosed].
func (j *Journal) Close() error {
	return j.db.Close()
}

// Entry is a frame to be recorded.
type Entry struct {
	Stream string
	Data   []byte
}

// Frame represents a recorded frame.
type Frame struct {
	// Seq is the position of the frame in the journal. It grows across all streams.
	Seq int64
	// Stream is the name of the stream the frame was recorded in.
	Stream string
	// Data is the frame payload.
	Data []byte
	// RecordedAt is the time when the frame was appended.
	RecordedAt time.Time
}

// Stats represents statistics about the journal.
type Stats struct {
	// Frames is the total number of frames.
	Frames int
	// Bytes is the total size of the frame payloads.
	Bytes int
	// LastSeq is the sequence number of the last appended frame.
	LastSeq int64
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s

	name := cfg.file
	if name == memory {
		name = memoryName()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		if cfg.durable {
			params.Add("_sync", "full")
		} else {
			params.Add("_sync", "normal")
		}
	}

	db, err := sql.Open("sqlite3", "file:"+name+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.conns)
		db.SetMaxIdleConns(cfg.conns)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	if _, err := db.Exec(
		`
		create table if not exists frame (
			seq         integer primary key autoincrement,
			stream      text not null,
			data        blob not null,
			size        int not null,
			recorded_at int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(
		`
		create index if not exists idx_frame_stream
		on frame (stream, seq)
		`,
	); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	return nil
}

func closedOr(err error) error {
	if err != nil && err.Error() == "sql: database is closed" {
		return ErrClosed
	}
	return err
}

// memoryName returns a unique name so that every in-memory journal gets its own shared cache.
func memoryName() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 16)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}

func toTimestamp(time time.Time) int64 {
	return time.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
