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
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Fully-qualified names of the messages in the bundled schema.
const (
	TokenMessageName         = "grammatek.tts.Token"
	TokenListMessageName     = "grammatek.tts.TokenList"
	ProcessedTextMessageName = "grammatek.tts.ProcessedText"
)

// DefaultSchemaModule is the Buf Schema Registry module that publishes the
// grammatek.tts schema. A SchemaPoller pointed at it will track revisions
// of the same schema that is bundled here.
const DefaultSchemaModule = "buf.build/grammatek/tts-frontend"

// schemaFile describes grammatek/tts/processed.proto. The descriptors are
// declared in code so the module carries its own schema without a protoc
// step; a registry may still serve a newer revision at runtime.
var schemaFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String("grammatek/tts/processed.proto"),
	Package: proto.String("grammatek.tts"),
	Syntax:  proto.String("proto3"),
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("Token"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("name"),
					Number:   proto.Int32(1),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					JsonName: proto.String("name"),
				},
				{
					Name:     proto.String("index"),
					Number:   proto.Int32(2),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					JsonName: proto.String("index"),
				},
				{
					Name:     proto.String("span_from"),
					Number:   proto.Int32(3),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					JsonName: proto.String("spanFrom"),
				},
				{
					Name:     proto.String("span_to"),
					Number:   proto.Int32(4),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					JsonName: proto.String("spanTo"),
				},
			},
		},
		{
			Name: proto.String("TokenList"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("tokens"),
					Number:   proto.Int32(1),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".grammatek.tts.Token"),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					JsonName: proto.String("tokens"),
				},
			},
		},
		{
			Name: proto.String("ProcessedText"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{
					Name:     proto.String("text"),
					Number:   proto.Int32(1),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
					JsonName: proto.String("text"),
				},
				{
					Name:     proto.String("tokens"),
					Number:   proto.Int32(2),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".grammatek.tts.Token"),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					JsonName: proto.String("tokens"),
				},
			},
		},
	},
}

// bundledFile is the compiled form of schemaFile. The descriptor literal
// is fixed, so a failure here is a programming error in this package.
var bundledFile = func() protoreflect.FileDescriptor {
	fd, err := protodesc.NewFile(schemaFile, nil)
	if err != nil {
		panic(fmt.Sprintf("bundled grammatek.tts schema is invalid: %v", err))
	}
	return fd
}()

// FileDescriptorSet returns the descriptors of the bundled grammatek.tts
// schema. The returned set is a copy and may be mutated by the caller.
func FileDescriptorSet() *descriptorpb.FileDescriptorSet {
	file, _ := proto.Clone(schemaFile).(*descriptorpb.FileDescriptorProto)
	return &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{file},
	}
}

// BundledResolver returns a Resolver backed by the schema compiled into
// this module. Its descriptors are the same ones [Token.Message] uses, so
// values built from either side can be mixed freely. Use a
// [SchemaWatcher] instead to resolve against the latest published
// revision.
func BundledResolver() (Resolver, error) {
	types := &protoregistry.Types{}
	if err := registerTypes(types, bundledFile); err != nil {
		return nil, err
	}
	return types, nil
}
