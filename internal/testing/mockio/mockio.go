// This package contains scripted in-memory transports for tests of the framing engine.
package mockio

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"sync"
)

var (
	// ErrClosed is returned by Writer after CloseWrite or Close.
	ErrClosed = errors.New("mockio: closed")
)

// Step is a single scripted result of a Read or Write call.
type Step struct {
	// Data is returned by Read. It is returned in multiple calls if the caller's slice is too
	// small; Err is returned with the last part.
	Data []byte
	// Max is the number of bytes Write accepts. Negative means all.
	Max int
	// Err is returned together with the data.
	Err error
}

// Reader replays a script of read steps and reports io.EOF once the script is exhausted.
type Reader struct {
	mu    sync.Mutex
	steps []Step
	reads int
}

var _ io.Reader = (*Reader)(nil)

func NewReader(steps ...Step) *Reader {
	return &Reader{
		steps: slices.Clone(steps),
	}
}

// Chunks returns a Reader that returns data in chunks of the provided sizes. The last size
// repeats.
func Chunks(data []byte, sizes ...int) *Reader {
	if len(sizes) == 0 {
		sizes = []int{max(len(data), 1)}
	}

	var steps []Step
	for i := 0; len(data) > 0; i++ {
		n := min(max(sizes[min(i, len(sizes)-1)], 1), len(data))
		steps = append(steps, Step{Data: data[:n]})
		data = data[n:]
	}

	return NewReader(steps...)
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads += 1
	if len(r.steps) == 0 {
		return 0, io.EOF
	}

	step := &r.steps[0]
	n := copy(p, step.Data)
	step.Data = step.Data[n:]
	if len(step.Data) != 0 {
		return n, nil
	}

	err := step.Err
	r.steps = r.steps[1:]
	return n, err
}

// Reads returns the number of Read calls.
func (r *Reader) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

// Writer records written bytes. Scripted steps are consumed by Write calls first; after that
// every call accepts up to the limit set by [Writer.WithLimit].
type Writer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	steps    []Step
	limit    int
	writes   []int
	flushes  int
	flushErr error
	closed   bool
}

var _ io.Writer = (*Writer)(nil)

func NewWriter(steps ...Step) *Writer {
	return &Writer{
		steps: slices.Clone(steps),
	}
}

// WithLimit sets the max number of bytes accepted by a single unscripted Write.
func (w *Writer) WithLimit(limit int) *Writer {
	w.limit = limit
	return w
}

// WithFlushError sets the error returned by Flush.
func (w *Writer) WithFlushError(err error) *Writer {
	w.flushErr = err
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	n, err := len(p), error(nil)
	if len(w.steps) != 0 {
		step := w.steps[0]
		w.steps = w.steps[1:]
		if step.Max >= 0 {
			n = min(n, step.Max)
		}
		err = step.Err
	} else if w.limit > 0 {
		n = min(n, w.limit)
	}

	w.buf.Write(p[:n])
	w.writes = append(w.writes, n)
	return n, err
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes += 1
	return w.flushErr
}

func (w *Writer) CloseWrite() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	return nil
}

// Bytes returns a copy of all accepted bytes.
func (w *Writer) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.buf.Bytes())
}

// Writes returns the number of bytes accepted by every Write call.
func (w *Writer) Writes() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.writes)
}

// Flushes returns the number of Flush calls.
func (w *Writer) Flushes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushes
}

// Closed reports whether CloseWrite or Close has been called.
func (w *Writer) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Conn joins a Reader and a Writer into a duplex transport.
type Conn struct {
	*Reader
	*Writer

	mu     sync.Mutex
	closes int
}

func NewConn(r *Reader, w *Writer) *Conn {
	return &Conn{
		Reader: r,
		Writer: w,
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.closes += 1
	c.mu.Unlock()

	_ = c.Writer.CloseWrite()
	return nil
}

// Closes returns the number of Close calls.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
