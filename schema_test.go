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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

func TestBundledResolver(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)

	for _, name := range []string{TokenMessageName, TokenListMessageName, ProcessedTextMessageName} {
		messageType, err := resolver.FindMessageByName(protoreflect.FullName(name))
		require.NoError(t, err)
		assert.Equal(t, name, string(messageType.Descriptor().FullName()))
	}

	_, err = resolver.FindMessageByName("grammatek.tts.Sentence")
	require.ErrorIs(t, err, protoregistry.NotFound)
}

func TestTokenDescriptor(t *testing.T) {
	t.Parallel()
	resolver, err := BundledResolver()
	require.NoError(t, err)
	messageType, err := resolver.FindMessageByName(TokenMessageName)
	require.NoError(t, err)

	fields := messageType.Descriptor().Fields()
	require.Equal(t, 4, fields.Len())
	expected := []struct {
		number   protoreflect.FieldNumber
		name     string
		jsonName string
		kind     protoreflect.Kind
	}{
		{1, "name", "name", protoreflect.StringKind},
		{2, "index", "index", protoreflect.Int32Kind},
		{3, "span_from", "spanFrom", protoreflect.Int32Kind},
		{4, "span_to", "spanTo", protoreflect.Int32Kind},
	}
	for _, want := range expected {
		field := fields.ByNumber(want.number)
		require.NotNil(t, field)
		assert.Equal(t, want.name, string(field.Name()))
		assert.Equal(t, want.jsonName, field.JSONName())
		assert.Equal(t, want.kind, field.Kind())
	}
}

func TestFileDescriptorSetReturnsCopy(t *testing.T) {
	t.Parallel()
	first := FileDescriptorSet()
	first.File[0].Package = proto.String("mutated")
	second := FileDescriptorSet()
	assert.Equal(t, "grammatek.tts", second.File[0].GetPackage())
}

func TestNewResolver_Empty(t *testing.T) {
	t.Parallel()
	resolver, err := NewResolver(FileDescriptorSet())
	require.NoError(t, err)
	_, err = resolver.FindMessageByName(TokenMessageName)
	require.NoError(t, err)

	// an empty set yields a resolver that finds nothing
	empty, err := NewResolver(nil)
	require.NoError(t, err)
	_, err = empty.FindMessageByName(TokenMessageName)
	require.ErrorIs(t, err, protoregistry.NotFound)
}
