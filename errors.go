package framed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
)

var (
	// ErrClosed is returned by a writer that has been closed.
	ErrClosed = errors.New("framed: closed")
	// ErrNotReady is returned by Submit when the write buffer has reached the high water mark.
	ErrNotReady = errors.New("framed: not ready")
	// ErrWouldBlock is returned by non-blocking transports that can't make progress right now.
	//
	// Transports may return it, a syscall.EAGAIN or an error wrapping either of them. Readers and
	// writers then wait according to their backoff policy and retry.
	ErrWouldBlock = errors.New("framed: operation would block")
	// ErrEndOfOutput is returned when the transport accepted no bytes without reporting an error.
	ErrEndOfOutput = errors.New("framed: transport accepted no bytes")
)

// TransportError is returned when the underlying transport fails.
type TransportError struct {
	// Op is either "read", "write", "flush" or "close".
	Op string
	// Err is the error returned by the transport.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("framed: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the decoder rejects the buffered bytes or the input ends in the
// middle of a frame.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("framed: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when the encoder rejects an item. It doesn't affect the writer.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("framed: encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func isWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, syscall.EAGAIN)
}

// isTemporary reports whether err interrupts the current operation without ending the stream.
func isTemporary(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		isWouldBlock(err)
}
