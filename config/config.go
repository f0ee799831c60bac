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

package config

import (
	"encoding/json"
	"time"

	"logglobe/analysis"
	"logglobe/common"
	"logglobe/fsop"
	s3save "logglobe/save/s3"

	"github.com/czcorpus/cnc-gokit/mail"
	conomiClient "github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
)

const (
	ActionSnapshot = "snapshot"
	ActionHelp     = "help"
	ActionVersion  = "version"

	DefaultTimeZone      = "Europe/Prague"
	DefaultSrcPath       = "/var/log/nginx/access.log"
	DefaultGeoIPDbPath   = "/usr/share/GeoIP/GeoLite2-City.mmdb"
	DefaultOutputPath    = "./web/data.json"
	DefaultGeoLookupSecs = 10
)

// Main describes the application's configuration
type Main struct {

	// SrcPath is the access log file a run reads from start to end
	SrcPath string `json:"srcPath"`

	GeoIPDbPath string `json:"geoIpDbPath"`

	// MMDBLookupPath is a path to the mmdblookup binary; when set,
	// geolocation is resolved via the subprocess backend instead of
	// the embedded reader
	MMDBLookupPath string `json:"mmdbLookupPath"`

	// GeoLookupTimeoutSecs limits a single subprocess lookup
	GeoLookupTimeoutSecs int `json:"geoLookupTimeoutSecs"`

	// OutputPath is where the JSON snapshot is written
	OutputPath string `json:"outputPath"`

	// TailSize limits the number of most recent hits kept in the
	// snapshot (default 1000)
	TailSize int `json:"tailSize"`

	// BotDefsPath is an optional path/URL with custom bot and IP
	// blacklist definitions
	BotDefsPath string `json:"botDefsPath"`

	// ScriptPath is an optional Lua script applied to each hit
	ScriptPath string `json:"scriptPath"`

	BurstDetection *analysis.Conf `json:"burstDetection"`

	S3 *s3save.Conf `json:"s3"`

	EmailNotification  *mail.NotificationConf         `json:"emailNotification"`
	ConomiNotification *conomiClient.ConomiClientConf `json:"conomiNotification"`

	LogPath  string `json:"logPath"`
	LogLevel string `json:"logLevel"`
	TimeZone string `json:"timeZone"`
}

func (c *Main) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call Validate()
	// first (which also tries to load the location and report
	// possible error)
	loc, _ := time.LoadLocation(c.TimeZone)
	return loc
}

// GeoLookupTimeout returns the configured subprocess lookup limit
// as a duration.
func (c *Main) GeoLookupTimeout() time.Duration {
	return time.Duration(c.GeoLookupTimeoutSecs) * time.Second
}

// Validate checks for essential config properties and fills in
// defaults for the omitted ones. Problems which make a run impossible
// (a missing source log) are fatal; a missing geolocation database is
// not - the pipeline degrades to location-less records.
func Validate(conf *Main) {
	if conf.SrcPath == "" {
		conf.SrcPath = DefaultSrcPath
		log.Warn().Str("srcPath", conf.SrcPath).
			Msg("srcPath not specified, using default")
	}
	if !fsop.IsFile(conf.SrcPath) {
		log.Fatal().Msgf("invalid srcPath: '%s'", conf.SrcPath)
	}
	if conf.GeoIPDbPath == "" {
		conf.GeoIPDbPath = DefaultGeoIPDbPath
		log.Warn().Str("geoIpDbPath", conf.GeoIPDbPath).
			Msg("geoIpDbPath not specified, using default")
	}
	if !fsop.IsFile(conf.GeoIPDbPath) {
		log.Warn().Msgf(
			"geolocation database '%s' not found - the snapshot will lack locations",
			conf.GeoIPDbPath)
	}
	if conf.OutputPath == "" {
		conf.OutputPath = DefaultOutputPath
		log.Warn().Str("outputPath", conf.OutputPath).
			Msg("outputPath not specified, using default")
	}
	if conf.GeoLookupTimeoutSecs <= 0 {
		conf.GeoLookupTimeoutSecs = DefaultGeoLookupSecs
	}
	if conf.BurstDetection != nil {
		conf.BurstDetection.Validate()
	}
	if conf.S3.IsConfigured() {
		if err := conf.S3.Validate(); err != nil {
			log.Fatal().Err(err).Msg("s3 validation error")
		}
	}
	if conf.TimeZone == "" {
		conf.TimeZone = DefaultTimeZone
		log.Warn().Str("timezone", conf.TimeZone).
			Msg("timeZone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		log.Fatal().Err(err).Msg("invalid timeZone")
	}
}

// Load loads main configuration (either from a local fs or via
// http(s)). An empty path yields a config with all the defaults.
func Load(path string) *Main {
	var conf Main
	if path == "" {
		return &conf
	}
	rawData, err := common.LoadSupportedResource(path)
	if err != nil {
		log.Fatal().Msgf("%s", err)
	}
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Msgf("%s", err)
	}
	return &conf
}
