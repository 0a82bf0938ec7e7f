package codec

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("codec: frame too large")
	// ErrUnexpectedEOF is returned when the input ends with bytes that don't form a frame.
	ErrUnexpectedEOF = fmt.Errorf("codec: bytes remaining in stream: %w", io.ErrUnexpectedEOF)
)

// SerdeError is returned by the structured-document codecs when a document can't be serialized
// or deserialized.
type SerdeError struct {
	// Format is the name of the document format, e.g. "json".
	Format string
	// Op is either "encode" or "decode".
	Op string
	// Err is the error returned by the serialization library.
	Err error
}

func (e *SerdeError) Error() string {
	return fmt.Sprintf("codec: %s %s: %v", e.Format, e.Op, e.Err)
}

func (e *SerdeError) Unwrap() error {
	return e.Err
}

// DecodeFailed returns a [SerdeError] for a failed decode.
func DecodeFailed(format string, err error) error {
	return &SerdeError{Format: format, Op: "decode", Err: err}
}

// EncodeFailed returns a [SerdeError] for a failed encode.
func EncodeFailed(format string, err error) error {
	return &SerdeError{Format: format, Op: "encode", Err: err}
}
