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

package main

import (
	"strings"
	"testing"

	"logglobe/config"
	"logglobe/hitlog"
	"logglobe/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestBuildRunReport(t *testing.T) {
	conf := &config.Main{
		SrcPath:    "/var/log/nginx/access.log",
		OutputPath: "/srv/web/data.json",
	}
	snapshot := &hitlog.Snapshot{
		TotalHits: 120,
		UniqueIPs: 17,
		IPs: []*hitlog.IPAggregate{
			{IP: "89.24.13.7", Count: 80, Country: "CZ", Suspicious: true},
			{IP: "203.0.113.60", Count: 40, Country: "DE"},
		},
	}
	stats := pipeline.ProcStats{ParsedLines: 120, SkippedLines: 3, DroppedHits: 1}

	metadata, paragraphs := buildRunReport(conf, snapshot, stats)

	assert.Equal(t, "/srv/web/data.json", metadata["outputPath"])
	assert.Equal(t, 120, metadata["totalHits"])
	assert.Equal(t, 17, metadata["uniqueIPs"])
	assert.Equal(t, 3, metadata["skippedLines"])
	assert.Equal(t, 1, metadata["suspiciousIPs"])

	body := strings.Join(paragraphs, "\n")
	assert.Contains(t, body, "/srv/web/data.json")
	assert.Contains(t, body, "Total hits: 120, unique IPs: 17, skipped lines: 3, dropped hits: 1.")
	assert.Contains(t, body, "89.24.13.7 (80 hits, CZ)")
	assert.NotContains(t, body, "203.0.113.60")
}

func TestBuildRunReportWithoutSuspiciousIPs(t *testing.T) {
	conf := &config.Main{OutputPath: "./web/data.json"}
	snapshot := &hitlog.Snapshot{TotalHits: 5, UniqueIPs: 2}

	metadata, paragraphs := buildRunReport(conf, snapshot, pipeline.ProcStats{ParsedLines: 5})

	assert.Equal(t, 0, metadata["suspiciousIPs"])
	assert.Equal(t, 2, len(paragraphs))
	assert.NotContains(t, strings.Join(paragraphs, "\n"), "bursty")
}
