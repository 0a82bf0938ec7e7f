// This package contains the [Buffer] type used by the framing engine to stage bytes between the
// transport and the codecs.
package buffer

import (
	"io"
)

const (
	// DefaultSize is the initial capacity of buffers created with a non-positive size.
	DefaultSize = 8 * 1024
)

var _ io.Writer = (*Buffer)(nil)

// Buffer is a growable sequence of bytes. Bytes are appended at the back and consumed from the
// front; appended chunks are never reordered.
//
// Buffer is not thread-safe. The framing engine gives each read or write half its own buffer.
type Buffer struct {
	buf []byte
	off int
}

// New returns an empty buffer with the provided initial capacity.
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{
		buf: make([]byte, 0, size),
	}
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.buf) - b.off
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Bytes returns the unconsumed bytes.
//
// The slice aliases the buffer and is valid only until the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.off:]
}

// Write appends p to the back of the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends c to the back of the buffer. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s to the back of the buffer. It never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.grow(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Advance consumes n bytes from the front of the buffer.
//
// It panics if n is negative or greater than [Buffer.Len].
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic("buffer: advance out of range")
	}
	b.off += n
	if b.off == len(b.buf) {
		b.buf = b.buf[:0]
		b.off = 0
	}
}

// Take consumes n bytes from the front of the buffer and returns them. The returned slice is a
// copy owned by the caller.
//
// It panics if n is negative or greater than [Buffer.Len].
func (b *Buffer) Take(n int) []byte {
	if n < 0 || n > b.Len() {
		panic("buffer: take out of range")
	}
	out := make([]byte, n)
	copy(out, b.buf[b.off:])
	b.Advance(n)
	return out
}

// Truncate discards all but the first n unconsumed bytes. It is used to roll back bytes appended
// by a failed encode.
//
// It panics if n is negative or greater than [Buffer.Len].
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.Len() {
		panic("buffer: truncate out of range")
	}
	if n == 0 {
		b.buf = b.buf[:0]
		b.off = 0
		return
	}
	b.buf = b.buf[:b.off+n]
}

// Reserve returns the spare capacity at the back of the buffer, growing it so that at least n
// bytes are available. Bytes written into the returned slice become part of the buffer only after
// [Buffer.Commit].
func (b *Buffer) Reserve(n int) []byte {
	b.grow(n)
	return b.buf[len(b.buf):cap(b.buf)]
}

// Commit appends n bytes previously written into the slice returned by [Buffer.Reserve].
//
// It panics if n exceeds the spare capacity.
func (b *Buffer) Commit(n int) {
	if n < 0 || len(b.buf)+n > cap(b.buf) {
		panic("buffer: commit out of range")
	}
	b.buf = b.buf[:len(b.buf)+n]
}

// Reset discards all bytes but keeps the allocated storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

func (b *Buffer) grow(n int) {
	if cap(b.buf)-len(b.buf) >= n {
		return
	}

	l := b.Len()
	if b.off > 0 && l+n <= cap(b.buf) {
		// Enough room once the consumed prefix is dropped.
		copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:l]
		b.off = 0
		return
	}

	size := max(2*cap(b.buf), l+n, DefaultSize)
	buf := make([]byte, l, size)
	copy(buf, b.buf[b.off:])
	b.buf = buf
	b.off = 0
}
