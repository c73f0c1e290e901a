// Package pb contains the protobuf schema of the model artifact.
package pb

//go:generate protoc --go_out=paths=source_relative:. artifact.proto
