package rpcmesh

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype used on the internal mesh. Messages
// are plain JSON structs; there is no generated protobuf code to keep in sync
// across the services.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                     { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
