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

package accesslog

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

type gzipReadCloser struct {
	f  *os.File
	gz *gzip.Reader
}

func (rc *gzipReadCloser) Read(p []byte) (int, error) {
	return rc.gz.Read(p)
}

func (rc *gzipReadCloser) Close() error {
	err := rc.gz.Close()
	if err2 := rc.f.Close(); err == nil {
		err = err2
	}
	return err
}

// Open opens a log file for line reading. Files with the `.gz` suffix
// (i.e. compressed rotated logs) are decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &gzipReadCloser{f: f, gz: gz}, nil
	}
	return f, nil
}
