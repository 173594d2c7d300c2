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
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Filter alters a message between decoding and re-encoding. It may mutate
// the given message and return it, or return a derived message, possibly
// of a different type.
type Filter func(protoreflect.Message) protoreflect.Message

// Filters is an ordered chain of filters. The output of the first filter
// is the input of the second, and so on.
type Filters []Filter

func (f Filters) apply(message protoreflect.Message) protoreflect.Message {
	for _, filter := range f {
		message = filter(message)
	}
	return message
}

// Redact returns a Filter that removes information from a message. The
// given predicate is invoked for every field in the message, including in
// nested messages, lists and maps, and the field is cleared when the
// predicate returns true. Frontend pipelines use this to strip raw user
// text out of payloads before they are logged or archived.
func Redact(predicate func(protoreflect.FieldDescriptor) bool) Filter {
	return func(msg protoreflect.Message) protoreflect.Message {
		redactMessage(msg, predicate)
		return msg
	}
}

// HasDebugRedactOption is a predicate for [Redact] that matches fields
// whose `debug_redact` option is set to true.
//
//	message RawText {
//	  string normalized = 1;
//	  string user_input = 2 [debug_redact = true];
//	}
func HasDebugRedactOption(fd protoreflect.FieldDescriptor) bool {
	opts, ok := fd.Options().(*descriptorpb.FieldOptions)
	return ok && opts.GetDebugRedact()
}

func redactMessage(message protoreflect.Message, redaction func(protoreflect.FieldDescriptor) bool) {
	message.Range(
		func(descriptor protoreflect.FieldDescriptor, value protoreflect.Value) bool {
			if redaction(descriptor) {
				message.Clear(descriptor)
				return true
			}
			switch {
			case descriptor.IsMap() && isMessage(descriptor.MapValue()):
				redactMap(value, redaction)
			case descriptor.IsList() && isMessage(descriptor):
				redactList(value, redaction)
			case !descriptor.IsMap() && isMessage(descriptor):
				// isMessage alone is also true for map fields, whose type is
				// a synthetic map entry message, hence the !IsMap above.
				redactMessage(value.Message(), redaction)
			}
			return true
		},
	)
}

func redactList(value protoreflect.Value, redaction func(protoreflect.FieldDescriptor) bool) {
	for i := 0; i < value.List().Len(); i++ {
		redactMessage(value.List().Get(i).Message(), redaction)
	}
}

func redactMap(value protoreflect.Value, redaction func(protoreflect.FieldDescriptor) bool) {
	value.Map().Range(func(_ protoreflect.MapKey, mapValue protoreflect.Value) bool {
		redactMessage(mapValue.Message(), redaction)
		return true
	})
}

func isMessage(descriptor protoreflect.FieldDescriptor) bool {
	return descriptor.Kind() == protoreflect.MessageKind ||
		descriptor.Kind() == protoreflect.GroupKind
}
