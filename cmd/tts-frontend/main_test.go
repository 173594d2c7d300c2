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
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootForTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "tts-frontend",
		Args: cobra.NoArgs,
		RunE: runRoot,
	}
	cmd.Flags().Bool("pretty", false, "indent the JSON output")
	return cmd
}

func TestRunRoot_PrintsDemoToken(t *testing.T) {
	t.Parallel()

	cmd := newRootForTest()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"orð\",\"index\":1,\"spanFrom\":1,\"spanTo\":4}\n", out.String())
}

func TestRunRoot_Pretty(t *testing.T) {
	t.Parallel()

	cmd := newRootForTest()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--pretty"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Greater(t, bytes.Count(out.Bytes(), []byte("\n")), 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "orð", decoded["name"])
	assert.Equal(t, float64(1), decoded["index"])
	assert.Equal(t, float64(1), decoded["spanFrom"])
	assert.Equal(t, float64(4), decoded["spanTo"])
}

func TestVersion_DefaultsToDevel(t *testing.T) {
	t.Parallel()

	// release builds stamp the real version over this via ldflags
	assert.Equal(t, "devel", version)
}

func TestIndentJSON(t *testing.T) {
	t.Parallel()

	out, err := indentJSON([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(out))

	_, err = indentJSON([]byte(`{"a":`))
	require.Error(t, err)
}
