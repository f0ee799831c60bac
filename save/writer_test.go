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

package save

import (
	"os"
	"path/filepath"
	"testing"

	"logglobe/hitlog"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func testSnapshot() *hitlog.Snapshot {
	return &hitlog.Snapshot{
		GeneratedAt: "2024-05-10T12:00:00Z",
		TotalHits:   3,
		UniqueIPs:   1,
		IPs: []*hitlog.IPAggregate{
			{IP: "89.24.13.7", Count: 3, Country: "CZ", UAType: "Chrome"},
		},
		Hits: []*hitlog.Hit{
			{IP: "89.24.13.7", Path: "/a", Status: 200},
		},
	}
}

func TestWriteSnapshot(t *testing.T) {
	dstPath := filepath.Join(t.TempDir(), "web", "data.json")
	err := WriteSnapshot(testSnapshot(), dstPath)
	assert.NoError(t, err)

	rawData, err := os.ReadFile(dstPath)
	assert.NoError(t, err)
	var decoded hitlog.Snapshot
	assert.NoError(t, json.Unmarshal(rawData, &decoded))
	assert.Equal(t, "2024-05-10T12:00:00Z", decoded.GeneratedAt)
	assert.Equal(t, 3, decoded.TotalHits)
	assert.Equal(t, "89.24.13.7", decoded.IPs[0].IP)
}

func TestWriteSnapshotOverwritesPrevious(t *testing.T) {
	dstPath := filepath.Join(t.TempDir(), "data.json")
	assert.NoError(t, WriteSnapshot(testSnapshot(), dstPath))
	snap2 := testSnapshot()
	snap2.TotalHits = 100
	assert.NoError(t, WriteSnapshot(snap2, dstPath))

	rawData, err := os.ReadFile(dstPath)
	assert.NoError(t, err)
	var decoded hitlog.Snapshot
	assert.NoError(t, json.Unmarshal(rawData, &decoded))
	assert.Equal(t, 100, decoded.TotalHits)
}

func TestEncodeSnapshotOmitsEmptyAttrs(t *testing.T) {
	data, err := EncodeSnapshot(testSnapshot())
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "country_hint")
	assert.NotContains(t, string(data), "suspicious")
	assert.Contains(t, string(data), "\"generated_at\"")
}
