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

	"logglobe/hitlog"
)

// CachedResolver memoizes results of a wrapped backend, keyed by the
// IP string. The backend is invoked at most once per distinct IP which
// matters especially for the subprocess backend where each invocation
// forks an external program. The cache lives for one processing run
// and is not safe for concurrent use (the pipeline is single-threaded).
type CachedResolver struct {
	backend Resolver
	cache   map[string]hitlog.GeoResult
}

func (cr *CachedResolver) Resolve(ctx context.Context, ip string) hitlog.GeoResult {
	ans, ok := cr.cache[ip]
	if !ok {
		ans = cr.backend.Resolve(ctx, ip)
		cr.cache[ip] = ans
	}
	return ans
}

func (cr *CachedResolver) Close() {
	cr.backend.Close()
}

// NumCached returns the number of distinct IPs resolved so far.
func (cr *CachedResolver) NumCached() int {
	return len(cr.cache)
}

// NewCachedResolver wraps a backend with a per-run memoizing cache.
func NewCachedResolver(backend Resolver) *CachedResolver {
	return &CachedResolver{
		backend: backend,
		cache:   make(map[string]hitlog.GeoResult),
	}
}
