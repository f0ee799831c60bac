// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package geoip

import (
	"context"
	"testing"

	"logglobe/hitlog"

	"github.com/stretchr/testify/assert"
)

type countingResolver struct {
	numCalls map[string]int
}

func (cr *countingResolver) Resolve(ctx context.Context, ip string) hitlog.GeoResult {
	cr.numCalls[ip]++
	if ip == "89.24.13.7" {
		return hitlog.GeoResult{Country: "CZ", City: "Prague"}
	}
	return hitlog.GeoResult{}
}

func (cr *countingResolver) Close() {}

func TestCacheInvokesBackendOncePerIP(t *testing.T) {
	backend := &countingResolver{numCalls: make(map[string]int)}
	cached := NewCachedResolver(backend)
	for i := 0; i < 5; i++ {
		ans := cached.Resolve(context.Background(), "89.24.13.7")
		assert.Equal(t, "CZ", ans.Country)
	}
	assert.Equal(t, 1, backend.numCalls["89.24.13.7"])
	assert.Equal(t, 1, cached.NumCached())
}

// TestCacheMemoizesEmptyResults tests that also a failed lookup is
// remembered - there is no point in retrying within a single run.
func TestCacheMemoizesEmptyResults(t *testing.T) {
	backend := &countingResolver{numCalls: make(map[string]int)}
	cached := NewCachedResolver(backend)
	for i := 0; i < 3; i++ {
		ans := cached.Resolve(context.Background(), "203.0.113.60")
		assert.True(t, ans.IsEmpty())
	}
	assert.Equal(t, 1, backend.numCalls["203.0.113.60"])
}

func TestCacheDistinctIPs(t *testing.T) {
	backend := &countingResolver{numCalls: make(map[string]int)}
	cached := NewCachedResolver(backend)
	cached.Resolve(context.Background(), "89.24.13.7")
	cached.Resolve(context.Background(), "203.0.113.60")
	cached.Resolve(context.Background(), "89.24.13.7")
	assert.Equal(t, 2, cached.NumCached())
	assert.Equal(t, 1, backend.numCalls["89.24.13.7"])
	assert.Equal(t, 1, backend.numCalls["203.0.113.60"])
}
