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
	"hash/maphash"
	"math/rand"
	"sync"
	"time"
)

// A private locked RNG avoids lock contention with the global RNG of
// package math/rand and keeps us independent of other packages that might
// seed the global RNG.
var rnd = newLockedRand() //nolint:gochecknoglobals

func addJitter(period time.Duration, jitter float64) time.Duration {
	factor := (rnd.Float64()*2 - 1) * jitter // a number between -jitter and jitter
	period = time.Duration(float64(period) * (factor + 1))
	if period == 0 {
		period = 1 // ticker.Reset panics if duration is zero
	}
	return period
}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	i := s.src.Int63()
	s.mu.Unlock()
	return i
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	s.src.Seed(seed)
	s.mu.Unlock()
}

func newLockedRand() *rand.Rand {
	//nolint:gosec // no need for a secure RNG here
	return rand.New(&lockedSource{src: rand.NewSource(int64(seed()))})
}

func seed() uint64 {
	// lock-free and fast; under the hood calls runtime.fastrand
	return new(maphash.Hash).Sum64()
}
