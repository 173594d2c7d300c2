// Copyright 2023-2024 Grammatek ehf.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ttsfrontend

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

// Unmarshaler decodes bytes into a message.
type Unmarshaler interface {
	Unmarshal([]byte, proto.Message) error
}

// Marshaler encodes a message into bytes.
type Marshaler interface {
	Marshal(proto.Message) ([]byte, error)
}

// InputFormat supplies a [Converter] with its input decoding. WithResolver
// returns the [Unmarshaler] to use, bound to the given [Resolver] so that
// google.protobuf.Any values and extensions in the payload can be
// resolved.
type InputFormat interface {
	WithResolver(Resolver) Unmarshaler
}

// OutputFormat supplies a [Converter] with its output encoding. WithResolver
// returns the [Marshaler] to use, bound to the given [Resolver].
type OutputFormat interface {
	WithResolver(Resolver) Marshaler
}

type binaryInputFormat struct {
	proto.UnmarshalOptions
}

// BinaryInputFormat accepts payloads in the protobuf binary wire format.
func BinaryInputFormat(in proto.UnmarshalOptions) InputFormat {
	return &binaryInputFormat{
		UnmarshalOptions: in,
	}
}

func (x binaryInputFormat) WithResolver(in Resolver) Unmarshaler {
	x.Resolver = in
	return x
}

// BinaryOutputFormat emits payloads in the protobuf binary wire format.
// Binary marshaling needs no resolver.
func BinaryOutputFormat(in proto.MarshalOptions) OutputFormat {
	return outputFormatWithoutResolver{Marshaler: in}
}

type jsonInputFormat struct {
	protojson.UnmarshalOptions
}

// JSONInputFormat accepts payloads in the protobuf JSON mapping.
func JSONInputFormat(in protojson.UnmarshalOptions) InputFormat {
	return jsonInputFormat{
		UnmarshalOptions: in,
	}
}

func (x jsonInputFormat) WithResolver(in Resolver) Unmarshaler {
	x.Resolver = in
	return x
}

type jsonOutputFormat struct {
	protojson.MarshalOptions
}

// JSONOutputFormat emits payloads in the protobuf JSON mapping.
func JSONOutputFormat(in protojson.MarshalOptions) OutputFormat {
	return jsonOutputFormat{
		MarshalOptions: in,
	}
}

func (x jsonOutputFormat) WithResolver(in Resolver) Marshaler {
	x.Resolver = in
	return x
}

type textInputFormat struct {
	prototext.UnmarshalOptions
}

// TextInputFormat accepts payloads in the protobuf text format.
func TextInputFormat(in prototext.UnmarshalOptions) InputFormat {
	return textInputFormat{
		UnmarshalOptions: in,
	}
}

func (x textInputFormat) WithResolver(in Resolver) Unmarshaler {
	x.Resolver = in
	return x
}

type textOutputFormat struct {
	prototext.MarshalOptions
}

// TextOutputFormat emits payloads in the protobuf text format.
func TextOutputFormat(in prototext.MarshalOptions) OutputFormat {
	return textOutputFormat{
		MarshalOptions: in,
	}
}

func (x textOutputFormat) WithResolver(in Resolver) Marshaler {
	x.Resolver = in
	return x
}

type inputFormatWithoutResolver struct {
	Unmarshaler
}

// InputFormatWithoutResolver adapts an [Unmarshaler] that has no use for a
// [Resolver] into an [InputFormat].
func InputFormatWithoutResolver(in Unmarshaler) InputFormat {
	return inputFormatWithoutResolver{
		Unmarshaler: in,
	}
}

func (x inputFormatWithoutResolver) WithResolver(_ Resolver) Unmarshaler {
	return x
}

type outputFormatWithoutResolver struct {
	Marshaler
}

// OutputFormatWithoutResolver adapts a [Marshaler] that has no use for a
// [Resolver] into an [OutputFormat].
func OutputFormatWithoutResolver(in Marshaler) OutputFormat {
	return outputFormatWithoutResolver{
		Marshaler: in,
	}
}

func (x outputFormatWithoutResolver) WithResolver(_ Resolver) Marshaler {
	return x
}
