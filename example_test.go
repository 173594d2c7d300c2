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
	"encoding/hex"
	"fmt"
	"log"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// The frontend's demo payload, as produced by MarshalStableJSON.
var inputData = []byte(`{"name":"orð","index":1,"spanFrom":1,"spanTo":4}`)

func Example() {
	resolver, err := BundledResolver()
	if err != nil {
		log.Fatalf("failed to load bundled schema: %v", err)
	}
	converter := &Converter{
		Resolver:     resolver,
		InputFormat:  JSONInputFormat(protojson.UnmarshalOptions{}),
		OutputFormat: BinaryOutputFormat(proto.MarshalOptions{}),
	}
	convertedMessage, err := converter.ConvertMessage(TokenMessageName, inputData)
	if err != nil {
		log.Fatalf("converting message: %v", err)
	}
	fmt.Printf("Converted message: 0x%s\n", hex.EncodeToString(convertedMessage))
	// Output: Converted message: 0x0a046f72c3b0100118012004
}
