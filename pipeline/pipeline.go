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

// Package pipeline drives one processing run: it streams access log
// lines, enriches parsed records with geolocation and client type
// information and aggregates them into the final snapshot. The
// defining failure policy here is "best-effort enrichment, never abort
// on dirty input" - only a completely unreadable log source is fatal.

package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"logglobe/analysis"
	"logglobe/ctype"
	"logglobe/geoip"
	"logglobe/hitlog"
	"logglobe/load/accesslog"
	"logglobe/scripting"

	"github.com/rs/zerolog/log"
)

// maxLineSize bounds a single log line. Lines beyond the limit cannot
// be legitimate records and are skipped the same way as unparseable
// ones (a log corrupted by e.g. binary junk must not abort the run).
const maxLineSize = 1 << 20

// readLine reads one line of input. An overlong line is consumed up to
// its end and reported via the second return value instead of being
// returned.
func readLine(rd *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := rd.ReadLine()
		if err != nil {
			return string(buf), tooLong, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = nil

			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// ProcStats summarizes side information about one run which is not
// part of the snapshot itself (used for logging and notifications).
type ProcStats struct {

	// ParsedLines is the number of lines accepted by the parser
	ParsedLines int

	// SkippedLines is the number of lines rejected by the parser
	SkippedLines int

	// DroppedHits counts parsed hits removed before aggregation
	// (blacklisted IPs, hits vetoed by a user script)
	DroppedHits int
}

// SnapshotProc processes a single access log file into a snapshot.
// All mutable state (geo cache, aggregates, hit window) is owned by
// the ProcessFile call, so one instance can be reused for multiple
// files within a process.
type SnapshotProc struct {
	Resolver geoip.Resolver
	Devices  *ctype.ClientTypeAnalyzer

	// Script is an optional user hook applied to each enriched hit
	Script *scripting.Transformer

	// Bursts is an optional detector flagging IPs with bursty traffic
	Bursts *analysis.BurstDetector

	// TailSize limits the number of most recent hits kept in the
	// snapshot; non-positive means hitlog.DefaultTailSize
	TailSize int
}

func (sp *SnapshotProc) buildHit(rec *accesslog.ParsedAccessLog) *hitlog.Hit {
	effIP := rec.ProxyIP
	if effIP == "" || effIP == "-" {
		effIP = rec.IPAddress
	}
	countryHint := rec.CountryHint
	if countryHint == "-" {
		countryHint = ""
	}
	return &hitlog.Hit{
		IP:          effIP,
		OrigIP:      rec.IPAddress,
		Datetime:    hitlog.ImportAccessLogDatetime(rec.Datetime),
		Request:     rec.Request,
		Path:        rec.RequestPath(),
		Status:      rec.Status,
		Bytes:       rec.Bytes,
		Referer:     rec.Referrer,
		UserAgent:   rec.UserAgent,
		UAType:      sp.Devices.AnalyzeUserAgent(rec.UserAgent),
		Host:        rec.VirtualHost,
		CountryHint: countryHint,
	}
}

// ProcessFile runs the whole pipeline for a single log file:
//  1. parse lines, silently skipping the rejected ones,
//  2. resolve each distinct effective IP exactly once,
//  3. attach locations (with the upstream country hint as a fallback),
//     apply the optional user script and update the aggregates,
//  4. flag bursty IPs and build the final snapshot.
//
// Only a missing or unreadable source yields an error.
func (sp *SnapshotProc) ProcessFile(
	ctx context.Context,
	srcPath string,
	generatedAt time.Time,
) (*hitlog.Snapshot, ProcStats, error) {
	var stats ProcStats
	src, err := accesslog.Open(srcPath)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to process %s: %w", srcPath, err)
	}
	defer src.Close()

	parser := accesslog.LineParser{}
	hits := make([]*hitlog.Hit, 0, 1000)
	rd := bufio.NewReader(src)
	for i := int64(0); ; i++ {
		line, tooLong, err := readLine(rd)
		if err == io.EOF {
			break

		} else if err != nil {
			return nil, stats, fmt.Errorf("failed to process %s: %w", srcPath, err)
		}
		if tooLong {
			log.Debug().Int64("lineNum", i).Msg("skipping an overlong line")
			stats.SkippedLines++
			continue
		}
		rec, err := parser.ParseLine(line, i)
		if err != nil {
			log.Debug().Err(err).Msg("skipping unparseable line")
			stats.SkippedLines++
			continue
		}
		stats.ParsedLines++
		hit := sp.buildHit(rec)
		if sp.Devices.HasBlacklistedIP(net.ParseIP(hit.IP)) {
			stats.DroppedHits++
			continue
		}
		hits = append(hits, hit)
	}

	// the resolver is invoked once per distinct IP - the lookup
	// (especially the subprocess one) dominates the run cost
	geoCache := make(map[string]hitlog.GeoResult)
	for _, hit := range hits {
		if _, ok := geoCache[hit.IP]; !ok {
			geoCache[hit.IP] = sp.Resolver.Resolve(ctx, hit.IP)
		}
	}
	log.Info().
		Int("parsedLines", stats.ParsedLines).
		Int("skippedLines", stats.SkippedLines).
		Int("uniqueIPs", len(geoCache)).
		Msg("finished reading the log source")

	builder := hitlog.NewSnapshotBuilder(sp.TailSize)
	hitsByIP := make(map[string][]*hitlog.Hit)
	script := sp.Script
	for _, hit := range hits {
		info := geoCache[hit.IP]
		hit.Country = info.Country
		hit.City = info.City
		hit.Lat = info.Lat
		hit.Lon = info.Lon
		if hit.Country == "" {
			hit.Country = hit.CountryHint
		}
		if script != nil {
			ans, keep, err := script.Transform(hit)
			if err != nil {
				log.Error().Err(err).Msg("the transform script failed, disabling it for the rest of the run")
				script = nil

			} else if !keep {
				stats.DroppedHits++
				continue

			} else {
				hit = ans
			}
		}
		builder.AddHit(hit)
		hitsByIP[hit.IP] = append(hitsByIP[hit.IP], hit)
	}

	if sp.Bursts != nil {
		for _, ip := range sp.Bursts.Detect(hitsByIP) {
			builder.MarkSuspicious(ip)
		}
	}
	return builder.Build(generatedAt), stats, nil
}
