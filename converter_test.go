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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestConverter_ConvertMessage(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)
	message := processedTextMessage(t, resolver, "orð á blaði", []Token{
		{Name: "orð", Index: 1, SpanFrom: 1, SpanTo: 4},
		{Name: "á", Index: 2, SpanFrom: 5, SpanTo: 6},
		{Name: "blaði", Index: 3, SpanFrom: 7, SpanTo: 12},
	})

	formats := []struct {
		name         string
		outputFormat OutputFormat
		inputFormat  InputFormat
	}{
		{
			name:         "binary",
			outputFormat: BinaryOutputFormat(proto.MarshalOptions{}),
			inputFormat:  BinaryInputFormat(proto.UnmarshalOptions{}),
		},
		{
			name:         "json",
			outputFormat: JSONOutputFormat(protojson.MarshalOptions{}),
			inputFormat:  JSONInputFormat(protojson.UnmarshalOptions{}),
		},
		{
			name:         "text",
			outputFormat: TextOutputFormat(prototext.MarshalOptions{}),
			inputFormat:  TextInputFormat(prototext.UnmarshalOptions{}),
		},
		{
			name:         "TextWithoutResolver",
			outputFormat: OutputFormatWithoutResolver(prototext.MarshalOptions{}),
			inputFormat:  InputFormatWithoutResolver(prototext.UnmarshalOptions{}),
		},
		{
			name:         "custom",
			outputFormat: marshalProtoJSONWithResolver{},
			inputFormat:  unmarshalProtoJSONWithResolver{},
		},
	}

	for _, inFormat := range formats {
		inputFormat := inFormat
		for _, outFormat := range formats {
			outputFormat := outFormat
			t.Run(fmt.Sprintf("%v_to_%v", inputFormat.name, outputFormat.name), func(t *testing.T) {
				t.Parallel()
				data, err := inputFormat.outputFormat.WithResolver(resolver).Marshal(message)
				require.NoError(t, err)

				converter := Converter{
					Resolver:     resolver,
					InputFormat:  inputFormat.inputFormat,
					OutputFormat: outputFormat.outputFormat,
				}
				resp, err := converter.ConvertMessage(ProcessedTextMessageName, data)
				require.NoError(t, err)
				clone := message.New().Interface()
				err = outputFormat.inputFormat.WithResolver(resolver).Unmarshal(resp, clone)
				require.NoError(t, err)
				diff := cmp.Diff(message, clone, protocmp.Transform())
				if diff != "" {
					t.Errorf("round-trip failure (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestConverter_UnknownMessage(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)
	converter := Converter{
		Resolver:     resolver,
		InputFormat:  JSONInputFormat(protojson.UnmarshalOptions{}),
		OutputFormat: BinaryOutputFormat(proto.MarshalOptions{}),
	}
	_, err = converter.ConvertMessage("grammatek.tts.Sentence", []byte(`{}`))
	require.ErrorContains(t, err, "grammatek.tts.Sentence")
}

func TestConverter_MalformedInput(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)
	converter := Converter{
		Resolver:     resolver,
		InputFormat:  JSONInputFormat(protojson.UnmarshalOptions{}),
		OutputFormat: BinaryOutputFormat(proto.MarshalOptions{}),
	}
	_, err = converter.ConvertMessage(TokenMessageName, []byte(`{"name":`))
	require.ErrorContains(t, err, "cannot be unmarshaled")
}

func TestConverter_AppliesFilters(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)
	converter := Converter{
		Resolver:     resolver,
		InputFormat:  JSONInputFormat(protojson.UnmarshalOptions{}),
		OutputFormat: JSONOutputFormat(protojson.MarshalOptions{}),
		Filters: Filters{
			Redact(func(fd protoreflect.FieldDescriptor) bool {
				return fd.Name() == "text"
			}),
		},
	}
	resp, err := converter.ConvertMessage(ProcessedTextMessageName, []byte(`{"text":"orð á blaði","tokens":[{"name":"orð","index":1}]}`))
	require.NoError(t, err)

	clone := dynamicpb.NewMessage(bundledFile.Messages().ByName("ProcessedText"))
	require.NoError(t, protojson.Unmarshal(resp, clone))
	want := processedTextMessage(t, resolver, "", []Token{{Name: "orð", Index: 1}})
	diff := cmp.Diff(want, clone, protocmp.Transform())
	if diff != "" {
		t.Errorf("unexpected filtered message (-want +got):\n%s", diff)
	}
}

// processedTextMessage builds a grammatek.tts.ProcessedText with the
// given text and tokens.
func processedTextMessage(t *testing.T, resolver Resolver, text string, tokens []Token) *dynamicpb.Message {
	t.Helper()
	messageType, err := resolver.FindMessageByName(ProcessedTextMessageName)
	require.NoError(t, err)
	descriptor := messageType.Descriptor()
	message := dynamicpb.NewMessage(descriptor)
	if text != "" {
		message.Set(descriptor.Fields().ByNumber(1), protoreflect.ValueOfString(text))
	}
	if len(tokens) > 0 {
		list := message.Mutable(descriptor.Fields().ByNumber(2)).List()
		for _, token := range tokens {
			list.Append(protoreflect.ValueOfMessage(token.Message()))
		}
	}
	return message
}

type marshalProtoJSONWithResolver struct {
	protojson.MarshalOptions
}

func (p marshalProtoJSONWithResolver) WithResolver(r Resolver) Marshaler {
	return protojson.MarshalOptions{
		Resolver: r,
	}
}

type unmarshalProtoJSONWithResolver struct {
	protojson.UnmarshalOptions
}

func (p unmarshalProtoJSONWithResolver) WithResolver(r Resolver) Unmarshaler {
	return protojson.UnmarshalOptions{
		Resolver: r,
	}
}
