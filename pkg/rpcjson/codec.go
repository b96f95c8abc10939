// Package rpcjson lets Connect handlers and clients exchange plain Go structs as JSON.
package rpcjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec replaces Connect's protobuf-backed "json" codec. Unknown fields are rejected.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name matches the application/json content type
func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithCodec is the option both servers and clients need
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
