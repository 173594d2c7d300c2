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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	ttsfrontend "github.com/grammatek/tts-frontend-proto"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes a package-level command with the given args and
// captures stdout. Flags are reset to their defaults first, since the
// commands are shared between invocations. Tests using this helper must
// not run in parallel.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestConvertCommand_RoundTrip(t *testing.T) {
	demoJSON, err := ttsfrontend.DemoToken().MarshalJSON()
	require.NoError(t, err)
	jsonPath := writeTempFile(t, "token.json", demoJSON)

	binary, err := runCommand(t, convertCmd, "--from", "json", "--to", "binary", jsonPath)
	require.NoError(t, err)
	require.NotEmpty(t, binary)

	binaryPath := writeTempFile(t, "token.bin", []byte(binary))
	roundTripped, err := runCommand(t, convertCmd, "--from", "binary", "--to", "json", binaryPath)
	require.NoError(t, err)
	assert.Equal(t, string(demoJSON)+"\n", roundTripped)
}

func TestConvertCommand_SchemaFile(t *testing.T) {
	// the binary form printed by the schema command must be usable as a
	// descriptor-set file for convert --schema
	schemaBinary, err := runCommand(t, schemaCmd, "--format", "binary")
	require.NoError(t, err)
	schemaPath := writeTempFile(t, "schema.bin", []byte(schemaBinary))

	demoJSON, err := ttsfrontend.DemoToken().MarshalJSON()
	require.NoError(t, err)
	jsonPath := writeTempFile(t, "token.json", demoJSON)

	out, err := runCommand(t, convertCmd, "--schema", schemaPath, "--from", "json", "--to", "json", jsonPath)
	require.NoError(t, err)
	assert.Equal(t, string(demoJSON)+"\n", out)
}

func TestConvertCommand_ExclusiveSchemaSources(t *testing.T) {
	jsonPath := writeTempFile(t, "token.json", []byte(`{}`))

	_, err := runCommand(t, convertCmd,
		"--registry", ttsfrontend.DefaultSchemaModule,
		"--schema", "schema.bin",
		jsonPath,
	)
	require.ErrorContains(t, err, "mutually exclusive")
}

func TestConvertCommand_UnknownMessage(t *testing.T) {
	jsonPath := writeTempFile(t, "token.json", []byte(`{}`))

	_, err := runCommand(t, convertCmd, "--message", "grammatek.tts.DoesNotExist", jsonPath)
	require.ErrorContains(t, err, "not known to the schema")
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, err := runCommand(t, schemaCmd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, out, `"grammatek/tts/processed.proto"`)
	assert.Contains(t, out, `"Token"`)
}

func TestSchemaCommand_UnknownFormat(t *testing.T) {
	_, err := runCommand(t, schemaCmd, "--format", "yaml")
	require.ErrorContains(t, err, `unknown schema encoding "yaml"`)
}
