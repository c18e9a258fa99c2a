package codec

import (
	"errors"

	"github.com/hostbound/dispatch/sink"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack implements Codec using MessagePack serialization.
// MessagePack is a binary format that's more compact than JSON
// while maintaining schema-less flexibility.
type MsgPack struct{}

// Encode serializes an envelope to MessagePack bytes.
func (c MsgPack) Encode(env sink.Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(env)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes MessagePack bytes to an envelope.
func (c MsgPack) Decode(data []byte) (sink.Envelope, error) {
	var env sink.Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return sink.Envelope{}, errors.Join(ErrDecodeFailure, err)
	}
	return env, nil
}

// ContentType returns the MIME type for MessagePack.
func (c MsgPack) ContentType() string {
	return "application/msgpack"
}

// Name returns the codec identifier.
func (c MsgPack) Name() string {
	return "msgpack"
}

// Compile-time check
var _ Codec = MsgPack{}
