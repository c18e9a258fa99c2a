package codec

import (
	"encoding/json"
	"errors"

	"github.com/hostbound/dispatch/sink"
)

// JSON implements Codec using encoding/json.
//
// Argument values round-trip through JSON's type system: numbers decode as
// float64 and structs as map[string]any. Consumers that need exact Go types
// should use MsgPack or decode the args themselves.
type JSON struct{}

// Encode serializes an envelope to JSON bytes.
func (c JSON) Encode(env sink.Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes JSON bytes to an envelope.
func (c JSON) Decode(data []byte) (sink.Envelope, error) {
	var env sink.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return sink.Envelope{}, errors.Join(ErrDecodeFailure, err)
	}
	return env, nil
}

// ContentType returns the MIME type for JSON.
func (c JSON) ContentType() string {
	return "application/json"
}

// Name returns the codec identifier.
func (c JSON) Name() string {
	return "json"
}

// Compile-time check
var _ Codec = JSON{}
