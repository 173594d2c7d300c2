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

	"github.com/pkg/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Converter translates message payloads from one encoding to another.
// The zero value is not usable; all of Resolver, InputFormat and
// OutputFormat must be set.
type Converter struct {
	// Resolver looks up message types by name, both for the payload itself
	// and for any google.protobuf.Any values or extensions it contains.
	// Use [BundledResolver] for the schema compiled into this module, or a
	// [SchemaWatcher] to follow the published schema.
	Resolver Resolver
	// InputFormat decodes the payload bytes. See [BinaryInputFormat],
	// [JSONInputFormat] and [TextInputFormat]; a custom format can be
	// supplied by implementing the [InputFormat] interface.
	InputFormat InputFormat
	// OutputFormat encodes the converted message. See
	// [BinaryOutputFormat], [JSONOutputFormat] and [TextOutputFormat].
	OutputFormat OutputFormat
	// Filters are applied to the decoded message, in order, before the
	// output encoding. They can drop or rewrite fields, e.g. [Redact].
	Filters Filters
}

// ConvertMessage decodes inputData as a message named messageName in the
// input format and re-encodes it in the output format.
func (c *Converter) ConvertMessage(messageName string, inputData []byte) ([]byte, error) {
	messageType, err := c.Resolver.FindMessageByName(protoreflect.FullName(messageName))
	if err != nil {
		return nil, errors.Wrapf(err, "message %q is not known to the schema", messageName)
	}
	msg := dynamicpb.NewMessage(messageType.Descriptor())
	if err := c.InputFormat.WithResolver(c.Resolver).Unmarshal(inputData, msg); err != nil {
		return nil, fmt.Errorf("input data cannot be unmarshaled as %s: %w", messageName, err)
	}

	filtered := c.Filters.apply(msg)

	data, err := c.OutputFormat.WithResolver(c.Resolver).Marshal(filtered.Interface())
	if err != nil {
		return nil, errors.Wrapf(err, "converted %s cannot be marshaled", messageName)
	}
	return data, nil
}
