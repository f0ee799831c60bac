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

package hitlog

import (
	"net"
	"time"
)

// GeoResult represents a (possibly partial) outcome of a geolocation
// lookup for a single IP address. Any of the fields may be missing -
// a partially resolved location is a regular state here, not an error.
// Lat and Lon always travel as a pair.
type GeoResult struct {
	Country string
	City    string
	Lat     *float64
	Lon     *float64
}

// IsEmpty tests whether the lookup provided no data at all.
func (g GeoResult) IsEmpty() bool {
	return g.Country == "" && g.City == "" && g.Lat == nil && g.Lon == nil
}

// Hit is a single parsed and enriched access log line. Once built
// by the processing pipeline, the value is not mutated any more.
type Hit struct {

	// IP is the effective client address used for geolocation
	// (a proxy-provided value is preferred over the connecting one)
	IP string `json:"ip"`

	// OrigIP is the address the server actually accepted the connection from
	OrigIP string `json:"orig_ip"`

	// Datetime contains either an RFC3339 timestamp or - in case
	// the log value could not be parsed - the original raw string
	Datetime string `json:"ts"`

	Request string `json:"request"`
	Path    string `json:"path"`
	Status  int    `json:"status"`
	Bytes   int    `json:"bytes"`
	Referer string `json:"referer,omitempty"`

	UserAgent string `json:"ua"`

	// UAType is a coarse client category (see the ctype package)
	UAType string `json:"ua_type"`

	Host string `json:"host"`

	// CountryHint is a country code provided by an upstream proxy header.
	// It serves as a fallback in case the GeoIP lookup yields no country.
	CountryHint string `json:"country_hint,omitempty"`

	Country string   `json:"country,omitempty"`
	City    string   `json:"city,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// GetTime returns the parsed variant of the hit's timestamp.
// In case the stored value is a raw (non-normalized) string,
// a zero time is returned.
func (h *Hit) GetTime() time.Time {
	t, err := time.Parse(time.RFC3339, h.Datetime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetClientIP returns the effective client IP. For a malformed
// address, nil is returned.
func (h *Hit) GetClientIP() net.IP {
	return net.ParseIP(h.IP)
}

func (h *Hit) GetUserAgent() string {
	return h.UserAgent
}

// IPAggregate is a rolled-up summary of all the hits observed
// for a single effective IP address within one run.
type IPAggregate struct {
	IP        string `json:"ip"`
	Count     int    `json:"count"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`

	// Country (and the other location fields) always keep the value
	// of the latest hit which provided a non-empty one.
	Country string   `json:"country,omitempty"`
	City    string   `json:"city,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	UAType  string   `json:"ua_type"`

	// Suspicious marks IPs with bursty request activity (see the
	// analysis package). It is a hint for a human reviewer, not
	// a signal to ban the address.
	Suspicious bool `json:"suspicious,omitempty"`
}

// Snapshot is the complete output artifact of one processing run.
// It is a pure value rebuilt from scratch every time - there are
// no merge semantics between subsequent runs.
type Snapshot struct {
	GeneratedAt string         `json:"generated_at"`
	TotalHits   int            `json:"total_hits"`
	UniqueIPs   int            `json:"unique_ips"`
	IPs         []*IPAggregate `json:"ips"`
	Hits        []*Hit         `json:"hits"`
}
