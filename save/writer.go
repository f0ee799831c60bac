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

// Package save stores a finished snapshot - either to a local file
// consumed by the map front-end or (via the s3 subpackage) to an
// object storage bucket.

package save

import (
	"fmt"
	"os"
	"path/filepath"

	"logglobe/hitlog"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// EncodeSnapshot serializes a snapshot the way the output file
// expects it (indented, with stable key order given by struct tags).
func EncodeSnapshot(snapshot *hitlog.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// WriteSnapshot atomically replaces dstPath with the encoded snapshot.
// Missing parent directories are created. Any previous snapshot is
// overwritten - each run is expected to produce a complete picture.
func WriteSnapshot(snapshot *hitlog.Snapshot, dstPath string) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", dstPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", dstPath, err)
	}
	if isFile, _ := fs.IsFile(dstPath); isFile {
		log.Debug().Str("file", dstPath).Msg("overwriting an existing snapshot")
	}
	tmpPath := dstPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", dstPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", dstPath, err)
	}
	log.Info().
		Str("file", dstPath).
		Int("sizeBytes", len(data)).
		Msg("snapshot written")
	return nil
}
