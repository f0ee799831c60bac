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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportAccessLogDatetime(t *testing.T) {
	ans := ImportAccessLogDatetime("16/Sep/2019:08:24:05 +0200")
	assert.Equal(t, "2019-09-16T08:24:05+02:00", ans)
}

func TestImportAccessLogDatetimeUTC(t *testing.T) {
	ans := ImportAccessLogDatetime("01/Jan/2024:23:59:59 +0000")
	assert.Equal(t, "2024-01-01T23:59:59Z", ans)
}

// TestImportAccessLogDatetimeInvalid tests that an unparseable value
// is passed through unchanged rather than failing the processing.
func TestImportAccessLogDatetimeInvalid(t *testing.T) {
	ans := ImportAccessLogDatetime("not a datetime")
	assert.Equal(t, "not a datetime", ans)
}

func TestImportAccessLogDatetimeEmpty(t *testing.T) {
	ans := ImportAccessLogDatetime("")
	assert.Equal(t, "", ans)
}

func TestHitGetTime(t *testing.T) {
	h := &Hit{Datetime: "2019-09-16T08:24:05+02:00"}
	assert.Equal(t, 2019, h.GetTime().Year())
	assert.Equal(t, 24, h.GetTime().Minute())
}

func TestHitGetTimeRawValue(t *testing.T) {
	h := &Hit{Datetime: "16/Sep/2019:08:24:05"}
	assert.True(t, h.GetTime().IsZero())
}
