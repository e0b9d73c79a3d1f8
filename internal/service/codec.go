package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec serializes the hand-defined request/response types with
// encoding/json. Registering it under the name "json" replaces Connect's
// default protobuf-JSON codec, which only handles proto messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSONCodec returns the option wiring the JSON codec; it applies to
// both handlers and clients.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
