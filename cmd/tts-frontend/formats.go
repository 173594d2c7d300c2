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

package main

import (
	"fmt"

	ttsfrontend "github.com/grammatek/tts-frontend-proto"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

func inputFormat(name string) (ttsfrontend.InputFormat, error) {
	switch name {
	case "binary":
		return ttsfrontend.BinaryInputFormat(proto.UnmarshalOptions{}), nil
	case "json":
		return ttsfrontend.JSONInputFormat(protojson.UnmarshalOptions{}), nil
	case "text":
		return ttsfrontend.TextInputFormat(prototext.UnmarshalOptions{}), nil
	}
	return nil, fmt.Errorf("unknown input encoding %q (want binary, json or text)", name)
}

func outputFormat(name string) (ttsfrontend.OutputFormat, error) {
	switch name {
	case "binary":
		return ttsfrontend.BinaryOutputFormat(proto.MarshalOptions{}), nil
	case "json":
		return ttsfrontend.JSONOutputFormat(protojson.MarshalOptions{}), nil
	case "text":
		return ttsfrontend.TextOutputFormat(prototext.MarshalOptions{}), nil
	}
	return nil, fmt.Errorf("unknown output encoding %q (want binary, json or text)", name)
}
