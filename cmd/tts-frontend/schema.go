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
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the bundled grammatek.tts schema",
	Long: `Schema prints the FileDescriptorSet bundled with this build, either as
JSON or as serialized descriptors suitable for the convert --schema flag.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().String("format", "json", "output encoding (binary|json)")
}

func runSchema(cmd *cobra.Command, _ []string) error {
	descriptors := ttsfrontend.FileDescriptorSet()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		data, err := ttsfrontend.MarshalStableJSON(descriptors)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	case "binary":
		data, err := proto.Marshal(descriptors)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return fmt.Errorf("unknown schema encoding %q (want binary or json)", format)
}
