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
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Cache stores downloaded schemas so a [SchemaWatcher] can keep working
// when the registry is unreachable. Whenever a new schema revision is
// downloaded it is saved to the cache; if the initial download fails the
// schema is loaded from the cache instead. Implementations must be safe
// for use from multiple goroutines.
//
// See the cache/filecache, cache/memcache and cache/rediscache packages
// for ready-made backends.
type Cache interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// cacheEntry is the envelope a SchemaWatcher stores in a Cache. The
// descriptors are serialized with proto.Marshal; the envelope itself uses
// msgpack so the metadata needs no schema of its own. SchemaID and
// Symbols identify what was fetched, so a key collision can be detected
// instead of silently resolving against the wrong schema.
type cacheEntry struct {
	SchemaID    string    `msgpack:"schema_id"`
	Symbols     []string  `msgpack:"symbols"`
	Descriptors []byte    `msgpack:"descriptors"`
	Version     string    `msgpack:"version"`
	FetchTime   time.Time `msgpack:"fetch_time"`
}

func encodeForCache(
	schemaID string,
	symbols []string,
	descriptors *descriptorpb.FileDescriptorSet,
	version string,
	fetchTime time.Time,
) ([]byte, error) {
	data, err := proto.Marshal(descriptors)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(&cacheEntry{
		SchemaID:    schemaID,
		Symbols:     symbols,
		Descriptors: data,
		Version:     version,
		FetchTime:   fetchTime,
	})
}

func decodeForCache(data []byte) (*cacheEntry, *descriptorpb.FileDescriptorSet, error) {
	var entry cacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, nil, err
	}
	var descriptors descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(entry.Descriptors, &descriptors); err != nil {
		return nil, nil, err
	}
	return &entry, &descriptors, nil
}

// matches reports whether the entry was stored for the given schema ID
// and (canonicalized) symbol list.
func (e *cacheEntry) matches(schemaID string, symbols []string) bool {
	if e.SchemaID != schemaID || len(e.Symbols) != len(symbols) {
		return false
	}
	for i := range symbols {
		if e.Symbols[i] != symbols[i] {
			return false
		}
	}
	return true
}
