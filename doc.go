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

// Package ttsfrontend carries the protobuf schema of the Grammatek TTS
// text-processing frontend and tooling for working with its messages.
//
// The frontend tokenizes and normalizes text before it is handed to a
// speech synthesizer. Its output is described by the grammatek.tts schema:
// a [Token] with a name and a character span, and the aggregates TokenList
// and ProcessedText. The schema descriptors are bundled with this module,
// so messages can be built, inspected and rendered without a protoc step.
//
// A [Converter] translates payloads between the binary, JSON and text
// protobuf encodings. Consumers that want to follow schema revisions as
// they are published can use a [SchemaWatcher], which polls a Buf Schema
// Registry module and keeps a [Resolver] up to date, optionally backed by
// a [Cache] for operation while the registry is unreachable.
package ttsfrontend
