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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	ttsfrontend "github.com/grammatek/tts-frontend-proto"
	"github.com/grammatek/tts-frontend-proto/cache/filecache"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

const awaitSchemaTimeout = 30 * time.Second

var convertCmd = &cobra.Command{
	Use:   "convert [flags] [input-file]",
	Short: "Convert a frontend message payload between encodings",
	Long: `Convert reads a payload from the given file (or stdin) and re-encodes it.
The payload is resolved against the bundled grammatek.tts schema unless
--registry or --schema selects another source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	flags := convertCmd.Flags()
	flags.String("message", ttsfrontend.TokenMessageName, "full name of the payload's message type")
	flags.String("from", "json", "input encoding (binary|json|text)")
	flags.String("to", "json", "output encoding (binary|json|text)")
	flags.String("registry", "", "Buf Schema Registry module to resolve against, e.g. "+ttsfrontend.DefaultSchemaModule)
	flags.String("registry-version", "", "tag or draft of the registry module")
	flags.String("schema", "", "file holding a serialized FileDescriptorSet to resolve against")
	flags.String("cache-dir", "", "directory for caching schemas downloaded from the registry")
	flags.Bool("redact", false, "drop fields marked with the debug_redact option")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputData, err := readInput(args)
	if err != nil {
		return err
	}

	resolver, cleanup, err := resolverFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	fromName, _ := cmd.Flags().GetString("from")
	inFormat, err := inputFormat(fromName)
	if err != nil {
		return err
	}
	toName, _ := cmd.Flags().GetString("to")
	outFormat, err := outputFormat(toName)
	if err != nil {
		return err
	}

	converter := &ttsfrontend.Converter{
		Resolver:     resolver,
		InputFormat:  inFormat,
		OutputFormat: outFormat,
	}
	if redact, _ := cmd.Flags().GetBool("redact"); redact {
		converter.Filters = ttsfrontend.Filters{
			ttsfrontend.Redact(ttsfrontend.HasDebugRedactOption),
		}
	}

	messageName, _ := cmd.Flags().GetString("message")
	slog.Debug("converting payload", "message", messageName, "from", fromName, "to", toName, "bytes", len(inputData))
	converted, err := converter.ConvertMessage(messageName, inputData)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch toName {
	case "json":
		// protojson output is not byte-stable; compact it so repeated
		// runs produce identical lines.
		var buf bytes.Buffer
		if err := json.Compact(&buf, converted); err != nil {
			return err
		}
		fmt.Fprintln(out, buf.String())
	case "text":
		fmt.Fprintln(out, string(converted))
	default:
		if _, err := out.Write(converted); err != nil {
			return err
		}
	}
	return nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

// resolverFromFlags picks the schema source: a registry module, a
// descriptor-set file, or the schema bundled with this module. The
// returned cleanup releases the schema watcher, if one was started.
func resolverFromFlags(cmd *cobra.Command) (ttsfrontend.Resolver, func(), error) {
	noop := func() {}
	registry, _ := cmd.Flags().GetString("registry")
	schemaPath, _ := cmd.Flags().GetString("schema")
	if registry != "" && schemaPath != "" {
		return nil, noop, fmt.Errorf("--registry and --schema are mutually exclusive")
	}

	switch {
	case registry != "":
		registryVersion, _ := cmd.Flags().GetString("registry-version")
		config := &ttsfrontend.SchemaWatcherConfig{
			SchemaPoller: ttsfrontend.NewSchemaPoller(
				ttsfrontend.NewDefaultFileDescriptorSetServiceClient(""),
				registry,
				registryVersion,
			),
		}
		if cacheDir, _ := cmd.Flags().GetString("cache-dir"); cacheDir != "" {
			schemaCache, err := filecache.New(filecache.Config{Path: cacheDir})
			if err != nil {
				return nil, noop, fmt.Errorf("cannot use %s as schema cache: %w", cacheDir, err)
			}
			config.Cache = schemaCache
		}
		watcher, err := ttsfrontend.NewSchemaWatcher(cmd.Context(), config)
		if err != nil {
			return nil, noop, err
		}
		awaitCtx, cancel := context.WithTimeout(cmd.Context(), awaitSchemaTimeout)
		defer cancel()
		if err := watcher.AwaitReady(awaitCtx); err != nil {
			watcher.Stop()
			return nil, noop, fmt.Errorf("schema for %s never became ready: %w", registry, err)
		}
		slog.Debug("resolved schema from registry", "module", registry, "version", watcher.ResolvedVersion())
		return watcher, watcher.Stop, nil
	case schemaPath != "":
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, noop, err
		}
		var descriptors descriptorpb.FileDescriptorSet
		if err := proto.Unmarshal(data, &descriptors); err != nil {
			return nil, noop, fmt.Errorf("%s does not hold a serialized FileDescriptorSet: %w", schemaPath, err)
		}
		resolver, err := ttsfrontend.NewResolver(&descriptors)
		if err != nil {
			return nil, noop, err
		}
		slog.Debug("resolved schema from file", "path", schemaPath, "files", len(descriptors.GetFile()))
		return resolver, noop, nil
	default:
		resolver, err := ttsfrontend.BundledResolver()
		if err != nil {
			return nil, noop, err
		}
		slog.Debug("using bundled schema")
		return resolver, noop, nil
	}
}
