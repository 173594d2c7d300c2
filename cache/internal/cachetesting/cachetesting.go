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

// Package cachetesting holds a conformance suite shared by the tests of
// the cache backends.
package cachetesting

import (
	"context"
	"crypto/rand"
	"testing"

	ttsfrontend "github.com/grammatek/tts-frontend-proto"
	"github.com/stretchr/testify/require"
)

// Keys shaped like the ones a SchemaWatcher derives: the bare schema
// module, a module suffixed with a symbol hash, and the degenerate empty
// key. Kept free of characters a backend might need to escape, so callers
// can map them to storage locations directly.
const (
	keyModule  = "tts-frontend"
	keySymbols = "tts-frontend_0a1b2c"
	keyEmpty   = ""
)

// RunSimpleCacheTests exercises the basic Load/Save contract of a cache
// and returns the entries it stored, so callers can verify them against
// the backing store directly.
//
// The stored values are random. The caller should already isolate
// concurrent runs from each other (distinct server, directory or
// keyspace), but random payloads also catch accidental sharing, since a
// leaked value from another run never equals the expected one.
//
//nolint:revive // okay that ctx is second; prefer t to be first
func RunSimpleCacheTests(t *testing.T, ctx context.Context, cache ttsfrontend.Cache) map[string][]byte {
	t.Helper()

	keys := []string{keyModule, keySymbols, keyEmpty}
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		_, err := cache.Load(ctx, key)
		require.Error(t, err, "key %q should start out empty", key)
		entries[key] = randomValue(t)
		require.NoError(t, cache.Save(ctx, key, entries[key]))
	}

	// every key still holds its own value after the later writes
	for _, key := range keys {
		loaded, err := cache.Load(ctx, key)
		require.NoError(t, err)
		require.Equal(t, entries[key], loaded, "key %q", key)
	}

	// overwriting one key must leave the others untouched
	entries[keyModule] = randomValue(t)
	require.NoError(t, cache.Save(ctx, keyModule, entries[keyModule]))
	for _, key := range keys {
		loaded, err := cache.Load(ctx, key)
		require.NoError(t, err)
		require.Equal(t, entries[key], loaded, "key %q", key)
	}

	return entries
}

func randomValue(t *testing.T) []byte {
	t.Helper()
	val := make([]byte, 128)
	_, err := rand.Read(val)
	require.NoError(t, err)
	return val
}
