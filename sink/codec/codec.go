// Package codec provides envelope serialization for sink implementations.
//
// Two codecs are available:
//   - JSON (default): human-readable, interoperable with non-Go consumers
//   - MsgPack: compact binary format for high-volume forwarding
package codec

import (
	"errors"

	"github.com/hostbound/dispatch/sink"
)

// Codec errors
var (
	ErrEncodeFailure = errors.New("envelope encode failed")
	ErrDecodeFailure = errors.New("envelope decode failed")
)

// Codec serializes envelopes for the wire.
type Codec interface {
	// Encode serializes an envelope to bytes.
	Encode(env sink.Envelope) ([]byte, error)

	// Decode deserializes bytes to an envelope.
	Decode(data []byte) (sink.Envelope, error)

	// ContentType returns the MIME type of the encoded form.
	ContentType() string

	// Name returns the codec identifier.
	Name() string
}

// Default returns the default codec (JSON).
func Default() Codec {
	return JSON{}
}
