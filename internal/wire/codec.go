package wire

import "encoding/json"

// Codec is a grpc/encoding.Codec that marshals wire messages as JSON
// instead of protobuf wire format.
//
// The cluster has no protoc toolchain in its build environment, so the
// generated-stub path cuemby-warren uses (api/proto, protoc-gen-go)
// isn't available here. gRPC's codec is an explicit extension point for
// exactly this: grpc.ForceServerCodec/grpc.ForceCodec let a codec replace
// the default proto codec per connection, while the transport still gets
// HTTP/2 framing, flow control, and bidirectional streaming from the real
// google.golang.org/grpc client/server. It is wired in by cmd/master
// (grpc.ForceServerCodec) and cmd/worker (grpc.ForceCodec).
type Codec struct{}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return "json"
}
