// Package wire defines the protobuf wire encoding for engine commands,
// events, and RPC messages. Messages are marshalled with protowire
// against the schema in api/proto/engine.proto; no generated code is
// checked in, the .proto file is the contract.
package wire
