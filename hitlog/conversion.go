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
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const accessLogDatetimeLayout = "02/Jan/2006:15:04:05 -0700"

// ImportAccessLogDatetime converts a datetime string as used by common
// HTTP servers in their access logs (e.g. `16/Sep/2019:08:24:05 +0200`)
// into RFC3339. In case the value cannot be parsed, the original raw
// string is returned unchanged - consumers must be able to deal with
// both variants.
func ImportAccessLogDatetime(datetime string) string {
	t, err := time.Parse(accessLogDatetimeLayout, datetime)
	if err != nil {
		log.Debug().Str("value", datetime).Msg("failed to convert access log datetime, keeping raw value")
		return datetime
	}
	return t.Format(time.RFC3339)
}

// GenerateRandomGroupID creates a random identifier usable for tagging
// groups of related records (e.g. bot candidate bursts) in logs.
func GenerateRandomGroupID() string {
	id := uuid.New()
	sum := sha1.New()
	_, err := sum.Write([]byte(id.String()))
	if err != nil {
		log.Error().Err(err).Msg("problem generating hash")
	}
	return hex.EncodeToString(sum.Sum(nil))
}
