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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const defaultPollingPeriod = 5 * time.Minute

var (
	// ErrSchemaWatcherStopped is returned from AwaitReady when the schema
	// watcher was stopped before it ever became ready.
	ErrSchemaWatcherStopped = errors.New("SchemaWatcher was stopped")
	// ErrSchemaWatcherNotReady is returned from the various Find* methods
	// of SchemaWatcher while no schema has been downloaded or loaded from
	// cache yet.
	ErrSchemaWatcherNotReady = errors.New("SchemaWatcher not ready")
)

// SchemaWatcherConfig contains the configurable attributes of a
// [SchemaWatcher].
type SchemaWatcherConfig struct {
	// SchemaPoller downloads the schema. See [NewSchemaPoller].
	SchemaPoller SchemaPoller
	// IncludeSymbols restricts the downloaded schema to descriptors needed
	// to describe the named elements (packages, messages, enums,
	// extensions, services, methods). Leave empty to download the whole
	// schema.
	IncludeSymbols []string
	// PollingPeriod is the interval between checks for a new schema
	// revision. Zero means the default of five minutes; a negative value
	// is invalid.
	PollingPeriod time.Duration
	// Jitter is the fraction by which each polling interval is randomly
	// lengthened or shortened, to spread out polls from a fleet of
	// watchers that started at the same time. Must be between 0 and 1;
	// 0.2 with a one-minute period polls every 48 to 72 seconds.
	Jitter float64
	// Cache, if non-nil, stores every downloaded schema and serves as a
	// fallback when the initial download fails, e.g. after a restart while
	// the registry is unreachable.
	Cache Cache
	// OnUpdate, if non-nil, is invoked after each successful download of a
	// new schema. Calls are sequential, so the callback need not be
	// thread-safe.
	OnUpdate func()
}

func (c *SchemaWatcherConfig) validate() error {
	if c.SchemaPoller == nil {
		return fmt.Errorf("schema poller not provided")
	}
	if c.PollingPeriod < 0 {
		return fmt.Errorf("polling period duration cannot be negative")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("jitter must be between 0 and 1")
	}
	if c.Cache != nil && c.SchemaPoller.GetSchemaID() == "" {
		return fmt.Errorf("schema poller returned blank schema ID but one is required when cache is present")
	}
	for _, sym := range c.IncludeSymbols {
		if sym == "" {
			// Counter-intuitively, empty string is valid here: it names the
			// default/unnamed package and includes all files defined without
			// a package.
			continue
		}
		if !protoreflect.FullName(sym).IsValid() {
			return fmt.Errorf("%q is not a valid symbol name", sym)
		}
	}
	return nil
}

// SchemaWatcher watches a schema in a remote registry by periodically
// polling. It implements [Resolver] using the most recently downloaded
// schema, so resolution results follow revisions as they are published.
type SchemaWatcher struct {
	poller         SchemaPoller
	schemaID       string
	includeSymbols []string
	cacheKey       string
	callback       func()

	// prevents concurrent calls to cache.Save, which could otherwise
	// leave a known-stale value in the cache.
	cacheMu sync.Mutex
	cache   Cache

	callbackMu sync.Mutex

	resolverMu      sync.RWMutex
	resolver        Resolver
	resolveTime     time.Time
	resolvedVersion string
	// if nil, watcher has been stopped
	stop context.CancelFunc
	// if nil, resolver is ready; otherwise closed once resolver is ready
	resolverReady chan struct{}
	// most recent resolver error until resolver is ready
	resolverErr error
}

// NewSchemaWatcher creates a new [SchemaWatcher] for the given config.
//
// The config is validated first and a non-nil error is returned if it is
// not valid. Otherwise, the configured SchemaPoller downloads the schema,
// and re-fetches it on the configured polling period. Either the Stop
// method must be called or the given ctx must be cancelled to release
// resources and end the polling.
//
// This function returns before a schema has been downloaded. Until the
// initial download (or cache load) completes, the Find* methods return
// ErrSchemaWatcherNotReady; use [SchemaWatcher.AwaitReady] to wait for
// the watcher to become usable. If the initial download keeps failing,
// it is retried with exponential backoff, capped at the polling period.
//
// After Stop is called or ctx is cancelled, the watcher may still be
// used, but it is frozen with its most recently downloaded schema. If no
// schema was ever downloaded, it is frozen in a bad state and its methods
// return ErrSchemaWatcherNotReady.
func NewSchemaWatcher(ctx context.Context, config *SchemaWatcherConfig) (*SchemaWatcher, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	pollingPeriod := config.PollingPeriod
	if pollingPeriod == 0 {
		pollingPeriod = defaultPollingPeriod
	}

	// canonicalize symbols: remove duplicates and sort
	symSet := map[string]struct{}{}
	for _, sym := range config.IncludeSymbols {
		symSet[sym] = struct{}{}
	}
	syms := make([]string, 0, len(symSet))
	for sym := range symSet {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	schemaID := config.SchemaPoller.GetSchemaID()

	var cacheKey string
	if config.Cache != nil {
		cacheKey = schemaID
		if len(syms) > 0 {
			// add a strong hash of the symbols to the key
			var sb strings.Builder
			sb.WriteString(cacheKey)
			sb.WriteByte('_')
			sha := sha256.New()
			for _, sym := range syms {
				sha.Write(([]byte)(sym))
			}
			hx := hex.NewEncoder(&sb)
			if _, err := hx.Write(sha.Sum(nil)); err != nil {
				// should never happen...
				return nil, fmt.Errorf("failed to generate hash of symbols for cache key: %w", err)
			}
			cacheKey = sb.String()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	schemaWatcher := &SchemaWatcher{
		poller:         config.SchemaPoller,
		schemaID:       schemaID,
		includeSymbols: syms,
		cacheKey:       cacheKey,
		callback:       config.OnUpdate,
		cache:          config.Cache,
		stop:           cancel,
		resolverReady:  make(chan struct{}),
	}
	schemaWatcher.start(ctx, pollingPeriod, config.Jitter)
	return schemaWatcher, nil
}

func (s *SchemaWatcher) getResolver() Resolver {
	s.resolverMu.RLock()
	defer s.resolverMu.RUnlock()
	return s.resolver
}

func (s *SchemaWatcher) updateResolver(ctx context.Context, fallbackToCache bool) error {
	schema, schemaVersion, schemaTime, err := s.getFileDescriptorSet(ctx, fallbackToCache)
	if err != nil {
		return fmt.Errorf("failed to fetch schema: %w", err)
	}
	resolver, err := NewResolver(schema)
	if err != nil {
		return fmt.Errorf("unable to create resolver from schema: %w", err)
	}
	s.resolverMu.Lock()
	defer s.resolverMu.Unlock()
	if schemaTime.Before(s.resolveTime) {
		// Only possible if schemaTime comes from a cache entry older than
		// the last successful load. Leave the existing resolver in place.
		return nil
	}
	s.resolver = resolver
	s.resolveTime = schemaTime
	s.resolverErr = nil
	s.resolvedVersion = schemaVersion
	return nil
}

func (s *SchemaWatcher) initialUpdateResolver(ctx context.Context, pollingPeriod time.Duration) (success bool) {
	defer func() {
		s.resolverMu.Lock()
		defer s.resolverMu.Unlock()
		close(s.resolverReady)
		s.resolverReady = nil
		if !success {
			s.stop = nil
		}
	}()

	var delay time.Duration
	for {
		err := s.updateResolver(ctx, true)
		if err == nil {
			return true
		}
		s.resolverMu.Lock()
		s.resolverErr = err
		s.resolverMu.Unlock()
		if delay == 0 {
			// immediately retry, but delay 1s if it fails again
			delay = time.Second
		} else {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(delay):
			}
			delay *= 2 // exponential backoff
		}

		// never wait longer than the configured polling period
		if delay > pollingPeriod {
			delay = pollingPeriod
		}
	}
}

// AwaitReady returns nil when s has downloaded a schema and is ready for
// use. If the given context is cancelled (or its deadline elapses) before
// s is ready, a non-nil error is returned: the most recent download error
// if there was one, the context error otherwise.
//
// Even when an error is returned, the watcher keeps trying to download
// the schema until s.Stop is called or the context passed to
// [NewSchemaWatcher] is cancelled.
func (s *SchemaWatcher) AwaitReady(ctx context.Context) error {
	s.resolverMu.RLock()
	ready, stop := s.resolverReady, s.stop
	s.resolverMu.RUnlock()
	if ready == nil {
		if stop == nil {
			return ErrSchemaWatcherStopped
		}
		return nil
	}
	select {
	case <-ready:
		s.resolverMu.RLock()
		stop = s.stop
		s.resolverMu.RUnlock()
		if stop == nil {
			return ErrSchemaWatcherStopped
		}
		return nil
	case <-ctx.Done():
		s.resolverMu.RLock()
		err := s.resolverErr
		s.resolverMu.RUnlock()
		if err != nil {
			return err
		}
		return ctx.Err()
	}
}

// LastResolved returns the time a schema was last successfully
// downloaded. If the boolean is false, the watcher is not yet ready. When
// the schema came from a cache, the timestamp is when the cached schema
// was originally downloaded.
//
// Useful as a staleness heuristic while the registry is unreachable.
// During normal operation the age stays below the polling period plus
// the latency of one poll.
func (s *SchemaWatcher) LastResolved() (bool, time.Time) {
	s.resolverMu.RLock()
	defer s.resolverMu.RUnlock()
	if s.resolver == nil {
		return false, time.Time{}
	}
	return true, s.resolveTime
}

// ResolvedVersion returns the registry version of the schema currently in
// use, or the empty string if the watcher is not ready.
func (s *SchemaWatcher) ResolvedVersion() string {
	s.resolverMu.RLock()
	defer s.resolverMu.RUnlock()
	return s.resolvedVersion
}

// FindExtensionByName looks up an extension field by the field's full
// name (not the name of the extended message).
//
// Implements [Resolver] using the most recently downloaded schema.
func (s *SchemaWatcher) FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error) {
	res := s.getResolver()
	if res == nil {
		return nil, ErrSchemaWatcherNotReady
	}
	return res.FindExtensionByName(field)
}

// FindExtensionByNumber looks up an extension field by the field number
// within some parent message, identified by full name.
//
// Implements [Resolver] using the most recently downloaded schema.
func (s *SchemaWatcher) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	res := s.getResolver()
	if res == nil {
		return nil, ErrSchemaWatcherNotReady
	}
	return res.FindExtensionByNumber(message, field)
}

// FindMessageByName looks up a message by its full name, e.g.
// "grammatek.tts.Token".
//
// Implements [Resolver] using the most recently downloaded schema.
func (s *SchemaWatcher) FindMessageByName(message protoreflect.FullName) (protoreflect.MessageType, error) {
	res := s.getResolver()
	if res == nil {
		return nil, ErrSchemaWatcherNotReady
	}
	return res.FindMessageByName(message)
}

// FindMessageByURL looks up a message by a URL identifier.
// See documentation on google.protobuf.Any.type_url for the URL format.
//
// Implements [Resolver] using the most recently downloaded schema.
func (s *SchemaWatcher) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	res := s.getResolver()
	if res == nil {
		return nil, ErrSchemaWatcherNotReady
	}
	return res.FindMessageByURL(url)
}

func (s *SchemaWatcher) start(ctx context.Context, pollingPeriod time.Duration, jitter float64) {
	go func() {
		if !s.initialUpdateResolver(ctx, pollingPeriod) {
			return
		}
		defer s.Stop()
		ticker := time.NewTicker(addJitter(pollingPeriod, jitter))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					// don't bother fetching a schema if context is done
					return
				}
				_ = s.updateResolver(ctx, false)
				ticker.Reset(addJitter(pollingPeriod, jitter))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the polling for new schema revisions. Safe to call multiple
// times.
func (s *SchemaWatcher) Stop() {
	s.resolverMu.Lock()
	defer s.resolverMu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// IsStopped reports whether the watcher has stopped polling, either via
// Stop or via cancellation of the context given to [NewSchemaWatcher].
func (s *SchemaWatcher) IsStopped() bool {
	s.resolverMu.RLock()
	defer s.resolverMu.RUnlock()
	return s.stop == nil
}

func (s *SchemaWatcher) getFileDescriptorSet(ctx context.Context, fallbackToCache bool) (*descriptorpb.FileDescriptorSet, string, time.Time, error) {
	s.resolverMu.RLock()
	currentVersion := s.resolvedVersion
	s.resolverMu.RUnlock()
	descriptors, version, err := s.poller.GetSchema(ctx, s.includeSymbols, currentVersion)
	respTime := time.Now()

	if err != nil {
		if errors.Is(err, ErrSchemaNotModified) || s.cache == nil || !fallbackToCache {
			return nil, "", time.Time{}, err
		}
		// try to fall back to cache
		data, cacheErr := s.cache.Load(ctx, s.cacheKey)
		if cacheErr != nil {
			return nil, "", time.Time{}, fmt.Errorf("%w (failed to load from cache: %w)", err, cacheErr)
		}
		entry, cachedDescriptors, cacheErr := decodeForCache(data)
		if cacheErr != nil {
			return nil, "", time.Time{}, fmt.Errorf("%w (failed to decode cached value: %w)", err, cacheErr)
		}
		if !entry.matches(s.schemaID, s.includeSymbols) {
			// Cache key collision! Do not use this result!
			return nil, "", time.Time{}, err
		}
		return cachedDescriptors, entry.Version, entry.FetchTime, nil
	}
	if s.callback != nil {
		go func() {
			// Lock forces sequential calls to the callback, so it does not
			// need to be thread-safe.
			s.callbackMu.Lock()
			defer s.callbackMu.Unlock()
			s.callback()
		}()
	}
	if s.cache != nil {
		go func() {
			data, err := encodeForCache(s.schemaID, s.includeSymbols, descriptors, version, respTime)
			if err != nil {
				// The data came from unmarshalling, so it must be
				// marshallable; this should never actually happen.
				return
			}
			// Though s.cache must be thread-safe, a mutex prevents racing
			// concurrent Saves from leaving a stale value in the cache.
			s.cacheMu.Lock()
			defer s.cacheMu.Unlock()
			// The error is ignored since there is nothing to do with it
			// here. Keeping it in the interface signature lets user code
			// wrap a cache implementation and observe failures itself.
			_ = s.cache.Save(ctx, s.cacheKey, data)
		}()
	}
	return descriptors, version, respTime, nil
}
