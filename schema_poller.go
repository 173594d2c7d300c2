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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"buf.build/gen/go/bufbuild/reflect/bufbuild/connect-go/buf/reflect/v1beta1/reflectv1beta1connect"
	reflectv1beta1 "buf.build/gen/go/bufbuild/reflect/protocolbuffers/go/buf/reflect/v1beta1"
	"github.com/bufbuild/connect-go"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ErrSchemaNotModified may be returned by a SchemaPoller to indicate that
// no descriptors were returned because the caller's cached version is
// still current.
var ErrSchemaNotModified = errors.New("no response because schema not modified")

// SchemaPoller polls for descriptors from a remote source.
// See [NewSchemaPoller].
type SchemaPoller interface {
	// GetSchema polls for a schema. The given symbols may be used to filter
	// the schema to a smaller result. currentVersion, if not empty, is the
	// version the caller has already fetched and cached; if that is still
	// the newest version, the implementation may return
	// ErrSchemaNotModified.
	GetSchema(ctx context.Context, symbols []string, currentVersion string) (descriptors *descriptorpb.FileDescriptorSet, version string, err error)
	// GetSchemaID identifies the schema being fetched, e.g.
	// "buf.build/grammatek/tts-frontend:main".
	GetSchemaID() string
}

// NewSchemaPoller returns a SchemaPoller that downloads descriptors for
// the given module using the Buf Reflection API. The frontend schema is
// published as [DefaultSchemaModule]. If version is non-empty, that tag
// or draft of the module is fetched; leave it blank for the latest
// release. A fixed commit makes periodic polling pointless, since the
// schema at such a version is immutable.
//
// For a client that talks to the public buf.build registry, see
// [NewDefaultFileDescriptorSetServiceClient].
func NewSchemaPoller(
	client reflectv1beta1connect.FileDescriptorSetServiceClient,
	module string,
	version string,
) SchemaPoller {
	return &bufReflectPoller{
		client:  client,
		module:  module,
		version: version,
	}
}

type bufReflectPoller struct {
	client          reflectv1beta1connect.FileDescriptorSetServiceClient
	module, version string
}

func (b *bufReflectPoller) GetSchema(ctx context.Context, symbols []string, currentVersion string) (*descriptorpb.FileDescriptorSet, string, error) {
	req := connect.NewRequest(&reflectv1beta1.GetFileDescriptorSetRequest{
		Module:  b.module,
		Version: b.version,
		Symbols: symbols,
	})
	if currentVersion != "" {
		req.Header().Set("If-None-Match", currentVersion)
	}
	resp, err := b.client.GetFileDescriptorSet(ctx, req)
	if err != nil {
		if currentVersion != "" && connect.IsNotModifiedError(err) {
			return nil, "", ErrSchemaNotModified
		}
		return nil, "", err
	}
	return resp.Msg.FileDescriptorSet, resp.Msg.Version, err
}

func (b *bufReflectPoller) GetSchemaID() string {
	if b.version == "" {
		return b.module
	}
	return b.module + ":" + b.version
}

// NewDefaultFileDescriptorSetServiceClient creates an authenticated
// connection to the public Buf Schema Registry at https://api.buf.build.
// If the given token is empty, the BUF_TOKEN environment variable is
// consulted.
//
// For a different registry instance, create your own
// [reflectv1beta1connect.FileDescriptorSetServiceClient]; use
// [NewAuthInterceptor] to configure its credentials.
func NewDefaultFileDescriptorSetServiceClient(token string) reflectv1beta1connect.FileDescriptorSetServiceClient {
	if token == "" {
		token, _ = BufTokenFromEnvironment("buf.build")
	}
	return reflectv1beta1connect.NewFileDescriptorSetServiceClient(
		http.DefaultClient, "https://api.buf.build",
		connect.WithInterceptors(NewAuthInterceptor(token)),
	)
}

// NewAuthInterceptor accepts a token for a Buf Schema Registry and returns
// an interceptor that authenticates every RPC to the registry.
func NewAuthInterceptor(token string) connect.Interceptor {
	bearerAuthValue := fmt.Sprintf("Bearer %s", token)
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, request connect.AnyRequest) (connect.AnyResponse, error) {
			request.Header().Set("Authorization", bearerAuthValue)
			return next(ctx, request)
		}
	})
}

// BufTokenFromEnvironment returns a token for downloading the given module
// by inspecting the BUF_TOKEN environment variable. moduleRef can be a
// full module reference, with or without a version, or just the domain of
// the registry. BUF_TOKEN may hold either a single token or a
// comma-separated list of token@remote entries.
func BufTokenFromEnvironment(moduleRef string) (string, error) {
	parts := strings.SplitN(moduleRef, "/", 2)
	envBufToken := os.Getenv("BUF_TOKEN")
	if envBufToken == "" {
		return "", fmt.Errorf("no BUF_TOKEN environment variable set")
	}
	tok := parseBufToken(envBufToken, parts[0])
	if tok == "" {
		return "", fmt.Errorf("BUF_TOKEN environment variable did not include a token for remote %q", parts[0])
	}
	return tok, nil
}

func parseBufToken(envVar, remote string) string {
	isMultiToken := strings.ContainsAny(envVar, "@,")
	if !isMultiToken {
		return envVar
	}
	tokenConfigs := strings.Split(envVar, ",")
	suffix := "@" + remote
	for _, tokenConfig := range tokenConfigs {
		token := strings.TrimSuffix(tokenConfig, suffix)
		if token == tokenConfig {
			// did not have the right suffix
			continue
		}
		return token
	}
	return ""
}
