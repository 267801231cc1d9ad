package rpcapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodec marshals rpcapi messages as JSON rather than the protobuf
// binary wire format. The message types in messages.go carry protobuf-style
// struct tags for documentation/familiarity, matching the shape
// protoc-gen-go would emit, but reproducing protoc's required internal
// descriptor plumbing without running protoc is not feasible here (see
// DESIGN.md); registering this codec under grpc's default codec name
// ("proto") lets the rest of the stack — ServiceDesc, grpc.NewServer,
// grpc.Dial — be the genuine google.golang.org/grpc transport while the
// wire encoding itself is JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func protoString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
