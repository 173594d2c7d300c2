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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddJitter(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		period time.Duration
		jitter float64
	}{
		{
			name:   "no jitter",
			period: defaultPollingPeriod,
			jitter: 0,
		},
		{
			name:   "default period with 20% jitter",
			period: defaultPollingPeriod,
			jitter: 0.2,
		},
		{
			name:   "full jitter",
			period: 2 * time.Second,
			jitter: 1,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			lowerBound := time.Duration(float64(testCase.period) * (1 - testCase.jitter))
			if lowerBound == 0 {
				lowerBound = 1 // addJitter clamps so ticker.Reset never sees zero
			}
			upperBound := time.Duration(float64(testCase.period) * (1 + testCase.jitter))

			observedLow, observedHigh := upperBound, lowerBound
			for i := 0; i < 5_000; i++ {
				period := addJitter(testCase.period, testCase.jitter)
				require.GreaterOrEqual(t, period, lowerBound)
				require.LessOrEqual(t, period, upperBound)
				if period < observedLow {
					observedLow = period
				}
				if period > observedHigh {
					observedHigh = period
				}
			}
			if testCase.jitter == 0 {
				require.Equal(t, testCase.period, observedLow)
				require.Equal(t, testCase.period, observedHigh)
				return
			}
			// the samples should cover most of the allowed window; 90%
			// keeps the check from flaking on an unlucky run
			minSpread := time.Duration(0.9 * float64(upperBound-lowerBound))
			require.GreaterOrEqual(t, observedHigh-observedLow, minSpread)
		})
	}
}

func TestAddJitter_NeverZero(t *testing.T) {
	t.Parallel()
	// full jitter on a 1ns period can scale it down to zero, which must
	// be clamped away before it reaches a ticker
	for i := 0; i < 1_000; i++ {
		require.Positive(t, addJitter(1, 1))
	}
}
