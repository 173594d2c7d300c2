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

// Command tts-frontend works with Grammatek TTS frontend protobuf
// messages. Run without arguments it prints the sample token as one line
// of JSON, mirroring the original frontend demo.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	ttsfrontend "github.com/grammatek/tts-frontend-proto"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "devel"

var rootCmd = &cobra.Command{
	Use:   "tts-frontend",
	Short: "Work with Grammatek TTS frontend protobuf messages",
	Long: `tts-frontend inspects and converts messages of the grammatek.tts schema,
the output format of the Grammatek TTS text-processing frontend.

Without arguments it prints the sample token as a single line of JSON.`,
	Args:             cobra.NoArgs,
	PersistentPreRun: setupLogging,
	RunE:             runRoot,
	SilenceUsage:     true,
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(schemaCmd)

	rootCmd.PersistentFlags().Bool("verbose", false, "log progress to stderr")
	rootCmd.Flags().Bool("pretty", false, "indent the JSON output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, _ []string) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	if !verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	})))
}

func runRoot(cmd *cobra.Command, _ []string) error {
	data, err := ttsfrontend.DemoToken().MarshalJSON()
	if err != nil {
		return err
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		if data, err = indentJSON(data); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func indentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
