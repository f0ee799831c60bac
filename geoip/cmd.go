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
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"logglobe/fsop"
	"logglobe/hitlog"

	"github.com/rs/zerolog/log"
)

// DefaultLookupTimeout limits a single mmdblookup invocation. The
// external process blocks the whole run, so a stuck lookup must be
// treated the same way as a failed one.
const DefaultLookupTimeout = 10 * time.Second

var (
	countryPattern   = regexp.MustCompile(`(?s)"country":\s*\{.*?"iso_code":\s*"([^"]+)"`)
	cityPattern      = regexp.MustCompile(`(?s)"city":\s*\{.*?"en":\s*"([^"]+)"`)
	latitudePattern  = regexp.MustCompile(`"latitude":\s*\n\s*([0-9.\-]+)`)
	longitudePattern = regexp.MustCompile(`"longitude":\s*\n\s*([0-9.\-]+)`)
)

func findSubmatch(pattern *regexp.Regexp, blob []byte) string {
	srch := pattern.FindSubmatch(blob)
	if len(srch) > 1 {
		return string(srch[1])
	}
	return ""
}

// parseLookupOutput scrapes the nested key/value text block produced
// by mmdblookup. Each attribute is extracted independently - a value
// which cannot be located or converted is simply left out. Latitude
// and longitude are applied only when both convert successfully.
func parseLookupOutput(blob []byte) hitlog.GeoResult {
	var ans hitlog.GeoResult
	ans.Country = findSubmatch(countryPattern, blob)
	ans.City = findSubmatch(cityPattern, blob)
	latRaw := findSubmatch(latitudePattern, blob)
	lonRaw := findSubmatch(longitudePattern, blob)
	if latRaw != "" && lonRaw != "" {
		lat, err1 := strconv.ParseFloat(latRaw, 64)
		lon, err2 := strconv.ParseFloat(lonRaw, 64)
		if err1 == nil && err2 == nil {
			ans.Lat = &lat
			ans.Lon = &lon
		}
	}
	return ans
}

// CmdResolver resolves IP locations by calling the mmdblookup binary
// (as provided by libmaxminddb) against a local GeoLite2/GeoIP2
// database file. Each invocation runs as a scoped subprocess with
// a bounded timeout.
type CmdResolver struct {
	binPath string
	dbPath  string
	timeout time.Duration
}

// Resolve runs a single lookup subprocess. A missing database, missing
// binary, non-zero exit status, timeout or empty output all degrade to
// an empty result.
func (cr *CmdResolver) Resolve(ctx context.Context, ip string) hitlog.GeoResult {
	if !fsop.IsFile(cr.dbPath) {
		return hitlog.GeoResult{}
	}
	ctx, cancel := context.WithTimeout(ctx, cr.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, cr.binPath, "--file", cr.dbPath, "--ip", ip)
	out, err := cmd.Output()
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("mmdblookup invocation failed")
		return hitlog.GeoResult{}
	}
	if len(out) == 0 {
		return hitlog.GeoResult{}
	}
	return parseLookupOutput(out)
}

func (cr *CmdResolver) Close() {}

// NewCmdResolver creates a subprocess-based resolver. For a
// non-positive timeout, DefaultLookupTimeout applies.
func NewCmdResolver(binPath, dbPath string, timeout time.Duration) *CmdResolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if !fsop.IsFile(dbPath) {
		log.Warn().Str("path", dbPath).Msg("GeoIP database not found, lookups will return unknown")
	}
	return &CmdResolver{
		binPath: binPath,
		dbPath:  dbPath,
		timeout: timeout,
	}
}
