package sqlite_test

import (
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/teenjuna/framed/internal/sqlite"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestNew(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		require.Nil(t, err)
		require.NotNil(t, journal)
		deferClose(t, journal)
	})
}

func TestAppend(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })

		require.Nil(t, journal.Append(t.Context(), "in", []byte("a"), []byte("b")))
		require.Nil(t, journal.Append(t.Context(), "out", []byte("c")))
		require.Nil(t, journal.Append(t.Context(), "in"))

		frames := collect(t, journal, "", 0)
		require.Equal(t, len(frames), 3)
		for i, expected := range []struct {
			stream string
			data   string
		}{
			{"in", "a"},
			{"in", "b"},
			{"out", "c"},
		} {
			require.Equal(t, frames[i].Seq, int64(i+1))
			require.Equal(t, frames[i].Stream, expected.stream)
			require.Equal(t, string(frames[i].Data), expected.data)
			require.False(t, frames[i].RecordedAt.IsZero())
		}

		require.Nil(t, journal.Close())
		require.Equal(t, journal.Append(t.Context(), "in", []byte("d")), sqlite.ErrClosed)
	})
}

func TestFrames(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, journal)

		for i := range 10 {
			stream := "even"
			if i%2 == 1 {
				stream = "odd"
			}
			require.Nil(t, journal.Append(t.Context(), stream, []byte(strconv.Itoa(i))))
		}

		odd := collect(t, journal, "odd", 0)
		require.Equal(t, len(odd), 5)
		for i, frame := range odd {
			require.Equal(t, string(frame.Data), strconv.Itoa(2*i+1))
		}

		after := collect(t, journal, "", 7)
		require.Equal(t, len(after), 3)
		require.Equal(t, string(after[0].Data), "7")

		// Stop early.
		n := 0
		for _, err := range journal.Frames(t.Context(), "", 0) {
			require.Nil(t, err)
			n += 1
			if n == 2 {
				break
			}
		}
		require.Equal(t, n, 2)

		streams, err := journal.Streams(t.Context())
		require.Nil(t, err)
		require.Equal(t, streams, []string{"even", "odd"})
	})
}

func TestWrite(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) {
			c.File(file)
			c.Retain(2)
		})
		deferClose(t, journal)

		require.Nil(t, journal.Write(
			t.Context(),
			sqlite.Entry{Stream: "a", Data: []byte("1")},
			sqlite.Entry{Stream: "b", Data: []byte("2")},
			sqlite.Entry{Stream: "a", Data: []byte("3")},
			sqlite.Entry{Stream: "a", Data: []byte("4")},
			sqlite.Entry{Stream: "b", Data: nil},
		))

		frames := collect(t, journal, "", 0)
		require.Equal(t, len(frames), 4)
		for i, expected := range []string{"2", "3", "4", ""} {
			require.Equal(t, string(frames[i].Data), expected)
		}
		require.Equal(t, frames[3].Seq, int64(5))

		require.Nil(t, journal.Write(t.Context()))
	})
}

func TestDurable(t *testing.T) {
	journal, err := sqlite.New(func(c *sqlite.Config) {
		c.File(path.Join(t.TempDir(), "file"))
		c.Durable(true)
	})
	require.Nil(t, err)
	deferClose(t, journal)

	require.Nil(t, journal.Append(t.Context(), "a", []byte("abc")))
	require.Equal(t, len(collect(t, journal, "a", 0)), 1)
}

func TestRetain(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) {
			c.File(file)
			c.Retain(3)
		})
		deferClose(t, journal)

		for i := range 10 {
			require.Nil(t, journal.Append(t.Context(), "a", []byte(strconv.Itoa(i))))
		}
		require.Nil(t, journal.Append(t.Context(), "b", []byte("b")))

		frames := collect(t, journal, "a", 0)
		require.Equal(t, len(frames), 3)
		require.Equal(t, string(frames[0].Data), "7")
		require.Equal(t, string(frames[2].Data), "9")
		require.Equal(t, len(collect(t, journal, "b", 0)), 1)
	})
}

func TestConcurrentAppend(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) {
			c.File(file)
			c.Conns(4)
		})
		deferClose(t, journal)

		var wg sync.WaitGroup
		for w := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 50 {
					if err := journal.Append(t.Context(), strconv.Itoa(w), []byte(strconv.Itoa(i))); err != nil {
						t.Errorf("append: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()

		stats, err := journal.Stats(t.Context())
		require.Nil(t, err)
		require.Equal(t, stats.Frames, 200)
		require.Equal(t, stats.LastSeq, int64(200))
	})
}

func TestStats(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		journal, _ := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		deferClose(t, journal)

		stats, err := journal.Stats(t.Context())
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{})

		require.Nil(t, journal.Append(t.Context(), "a", []byte("abc"), []byte("de")))

		stats, err = journal.Stats(t.Context())
		require.Nil(t, err)
		require.Equal(t, *stats, sqlite.Stats{Frames: 2, Bytes: 5, LastSeq: 2})
	})
}

func collect(t *testing.T, journal *sqlite.Journal, stream string, after int64) []sqlite.Frame {
	t.Helper()
	frames := make([]sqlite.Frame, 0)
	for frame, err := range journal.Frames(t.Context(), stream, after) {
		require.Nil(t, err)
		frames = append(frames, frame)
	}
	return frames
}

func run(t *testing.T, fn func(t *testing.T, file string)) {
	t.Helper()
	t.Run("In file", func(t *testing.T) {
		t.Helper()
		fn(t, path.Join(t.TempDir(), "file"))
	})
	t.Run("In memory", func(t *testing.T) {
		t.Helper()
		fn(t, ":memory:")
	})
}

func deferClose(t *testing.T, journal *sqlite.Journal) {
	t.Cleanup(func() {
		if err := journal.Close(); err != nil {
			t.Fatalf("close journal: %v", err)
		}
	})
}
