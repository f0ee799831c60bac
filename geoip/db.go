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
	"net"

	"logglobe/fsop"
	"logglobe/hitlog"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// DBResolver resolves IP locations via an embedded reader of the
// GeoLite2/GeoIP2 mmdb format. It avoids the per-lookup subprocess
// cost of CmdResolver and is the default backend when no external
// lookup binary is configured.
type DBResolver struct {
	db *geoip2.Reader
}

// importCityRecord converts a decoded mmdb record. An address unknown
// to the database decodes into an all-zero record and only such records
// yield no coordinates - a zero lat/lon accompanied by any other data
// is a real location (0,0 is a valid place).
func importCityRecord(rec *geoip2.City) hitlog.GeoResult {
	var ans hitlog.GeoResult
	ans.Country = rec.Country.IsoCode
	ans.City = rec.City.Names["en"]
	if ans.Country != "" || ans.City != "" ||
		rec.Location.Latitude != 0 || rec.Location.Longitude != 0 {
		lat := rec.Location.Latitude
		lon := rec.Location.Longitude
		ans.Lat = &lat
		ans.Lon = &lon
	}
	return ans
}

// Resolve returns location data for the provided IP. With no database
// open or for a malformed address, an empty result is returned.
func (dr *DBResolver) Resolve(ctx context.Context, ip string) hitlog.GeoResult {
	if dr.db == nil {
		return hitlog.GeoResult{}
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		return hitlog.GeoResult{}
	}
	city, err := dr.db.City(addr)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("failed to fetch GeoIP data")
		return hitlog.GeoResult{}
	}
	return importCityRecord(city)
}

func (dr *DBResolver) Close() {
	if dr.db != nil {
		dr.db.Close()
	}
}

// NewDBResolver opens the configured database. A missing or broken
// database file is not an error - the resolver just degrades to
// "unknown" for all lookups.
func NewDBResolver(dbPath string) *DBResolver {
	if !fsop.IsFile(dbPath) {
		log.Warn().Str("path", dbPath).Msg("GeoIP database not found, lookups will return unknown")
		return &DBResolver{}
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("failed to open GeoIP database, lookups will return unknown")
		return &DBResolver{}
	}
	return &DBResolver{db: db}
}
