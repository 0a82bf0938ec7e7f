// This package contains the [Encoder], [Decoder] and [Codec] interfaces used by the framing engine
// and several implementations inside subpackages.
package codec

import (
	"github.com/teenjuna/framed/buffer"
)

// Encoder serializes items into frames.
//
// Implementations are not considered thread-safe and each instance is used by a single half of a
// framed transport.
type Encoder[Item any] interface {
	// Encode appends exactly one self-delimiting frame representing item to the back of buf.
	//
	// Bytes already present in buf belong to previously encoded items and must not be touched. If
	// the item can't be represented, Encode returns an error and leaves no partial frame in buf.
	Encode(item Item, buf *buffer.Buffer) error
}

// Decoder parses frames into items.
//
// Implementations are not considered thread-safe and each instance is used by a single half of a
// framed transport.
type Decoder[Item any] interface {
	// Decode examines buf from the front. If a complete frame is present, it consumes exactly the
	// bytes of that frame and returns the item with ok set to true. If only a part of a frame is
	// present, it returns ok set to false and doesn't consume anything.
	//
	// An error means that the buffered prefix can never become a valid frame. It ends the stream.
	Decode(buf *buffer.Buffer) (item Item, ok bool, err error)
}

// EOFDecoder is implemented by decoders that can produce a final item from trailing bytes that
// will never be completed because the input has ended.
type EOFDecoder[Item any] interface {
	// DecodeEOF is called once after the transport has reported the end of input.
	DecodeEOF(buf *buffer.Buffer) (item Item, ok bool, err error)
}

// Limited is implemented by codecs that bound the size of a single frame.
type Limited interface {
	// MaxFrameSize returns the maximum number of bytes a single frame may occupy in the buffer, or
	// 0 if frames are unbounded.
	MaxFrameSize() int
}

// Codec is both an [Encoder] and a [Decoder] of the same item type.
type Codec[Item any] interface {
	Encoder[Item]
	Decoder[Item]
	// Derive returns a new Codec instance with the same settings.
	//
	// The returned codec maintains its own internal state independent of the original.
	Derive() Codec[Item]
}

// DecodeEOF calls [EOFDecoder.DecodeEOF] if d implements it and [Decoder.Decode] otherwise.
func DecodeEOF[Item any](d Decoder[Item], buf *buffer.Buffer) (Item, bool, error) {
	if e, ok := d.(EOFDecoder[Item]); ok {
		return e.DecodeEOF(buf)
	}
	return d.Decode(buf)
}

// MaxFrameSize returns the frame size bound declared by v, or 0 if v doesn't implement [Limited].
func MaxFrameSize(v any) int {
	if l, ok := v.(Limited); ok {
		return max(l.MaxFrameSize(), 0)
	}
	return 0
}
