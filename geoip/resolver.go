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

// Package geoip provides best-effort IP geolocation. All the resolvers
// share one contract: a lookup may return partial data or no data at
// all but it never fails the caller - an unresolvable or malformed IP
// is a normal input here.

package geoip

import (
	"context"

	"logglobe/hitlog"
)

// Resolver translates an IP address into a (possibly partial)
// location record.
type Resolver interface {

	// Resolve returns location data for the provided IP. An empty
	// GeoResult means the lookup failed or the address is unknown
	// to the database; both cases are non-fatal by design.
	Resolve(ctx context.Context, ip string) hitlog.GeoResult

	// Close releases resolver resources (e.g. an open database)
	Close()
}
