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
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Field numbers of grammatek.tts.Token.
const (
	tokenFieldName     = 1
	tokenFieldIndex    = 2
	tokenFieldSpanFrom = 3
	tokenFieldSpanTo   = 4
)

// Token is one unit of text produced by the frontend's tokenizer. Name
// holds the token text, Index its position in the sentence, and SpanFrom
// and SpanTo the character offsets of the token in the source text. The
// tokenizer emits spans with SpanFrom <= SpanTo, but nothing here checks
// or relies on that.
type Token struct {
	Name     string
	Index    int32
	SpanFrom int32
	SpanTo   int32
}

// DemoToken returns the sample token used by the zero-argument CLI
// invocation: the Icelandic word "orð" covering characters 1 through 4.
func DemoToken() Token {
	return Token{Name: "orð", Index: 1, SpanFrom: 1, SpanTo: 4}
}

// Message converts t to its dynamic protobuf representation, typed by the
// bundled grammatek.tts.Token descriptor.
func (t Token) Message() *dynamicpb.Message {
	descriptor := bundledFile.Messages().ByName("Token")
	fields := descriptor.Fields()
	msg := dynamicpb.NewMessage(descriptor)
	if t.Name != "" {
		msg.Set(fields.ByNumber(tokenFieldName), protoreflect.ValueOfString(t.Name))
	}
	if t.Index != 0 {
		msg.Set(fields.ByNumber(tokenFieldIndex), protoreflect.ValueOfInt32(t.Index))
	}
	if t.SpanFrom != 0 {
		msg.Set(fields.ByNumber(tokenFieldSpanFrom), protoreflect.ValueOfInt32(t.SpanFrom))
	}
	if t.SpanTo != 0 {
		msg.Set(fields.ByNumber(tokenFieldSpanTo), protoreflect.ValueOfInt32(t.SpanTo))
	}
	return msg
}

// TokenFromMessage converts a grammatek.tts.Token message, dynamic or
// generated, back into a Token value.
func TokenFromMessage(msg proto.Message) (Token, error) {
	reflected := msg.ProtoReflect()
	if name := reflected.Descriptor().FullName(); name != TokenMessageName {
		return Token{}, fmt.Errorf("message is a %s, not a %s", name, TokenMessageName)
	}
	fields := reflected.Descriptor().Fields()
	return Token{
		Name:     reflected.Get(fields.ByNumber(tokenFieldName)).String(),
		Index:    int32(reflected.Get(fields.ByNumber(tokenFieldIndex)).Int()),
		SpanFrom: int32(reflected.Get(fields.ByNumber(tokenFieldSpanFrom)).Int()),
		SpanTo:   int32(reflected.Get(fields.ByNumber(tokenFieldSpanTo)).Int()),
	}, nil
}

// MarshalJSON renders the token through the canonical protobuf JSON
// mapping, producing camelCase keys in field-number order.
func (t Token) MarshalJSON() ([]byte, error) {
	return MarshalStableJSON(t.Message())
}

// MarshalStableJSON marshals a message to a single deterministic line of
// JSON. protojson does not promise byte-stable output (it deliberately
// varies whitespace between runs), so the result is compacted before it
// is returned.
func MarshalStableJSON(msg proto.Message) ([]byte, error) {
	data, err := protojson.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
