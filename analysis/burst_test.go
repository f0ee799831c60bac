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

package analysis

import (
	"testing"
	"time"

	"logglobe/hitlog"

	"github.com/stretchr/testify/assert"
)

func mkHits(ip string, start time.Time, num int, step time.Duration) []*hitlog.Hit {
	ans := make([]*hitlog.Hit, num)
	for i := 0; i < num; i++ {
		ans[i] = &hitlog.Hit{
			IP:       ip,
			Datetime: start.Add(time.Duration(i) * step).Format(time.RFC3339),
		}
	}
	return ans
}

func TestDetectFlagsBurstingIP(t *testing.T) {
	bd := NewBurstDetector(Conf{MinClusterSize: 5, EpsilonSecs: 10})
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	hits := map[string][]*hitlog.Hit{
		"89.24.13.7": mkHits("89.24.13.7", start, 20, time.Second),
	}
	ans := bd.Detect(hits)
	assert.Equal(t, []string{"89.24.13.7"}, ans)
}

func TestDetectIgnoresSlowTraffic(t *testing.T) {
	bd := NewBurstDetector(Conf{MinClusterSize: 5, EpsilonSecs: 10})
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	hits := map[string][]*hitlog.Hit{
		// 20 requests but each an hour apart
		"89.24.13.7": mkHits("89.24.13.7", start, 20, time.Hour),
	}
	ans := bd.Detect(hits)
	assert.Equal(t, 0, len(ans))
}

func TestDetectIgnoresLowVolumeIPs(t *testing.T) {
	bd := NewBurstDetector(Conf{MinClusterSize: 10, EpsilonSecs: 10})
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	hits := map[string][]*hitlog.Hit{
		"89.24.13.7": mkHits("89.24.13.7", start, 3, time.Second),
	}
	ans := bd.Detect(hits)
	assert.Equal(t, 0, len(ans))
}

// TestDetectSkipsRawTimestamps tests that hits whose timestamp failed
// to normalize do not enter the clustering.
func TestDetectSkipsRawTimestamps(t *testing.T) {
	bd := NewBurstDetector(Conf{MinClusterSize: 5, EpsilonSecs: 10})
	hits := make([]*hitlog.Hit, 20)
	for i := range hits {
		hits[i] = &hitlog.Hit{IP: "89.24.13.7", Datetime: "10/May/2024:08:00:00"}
	}
	ans := bd.Detect(map[string][]*hitlog.Hit{"89.24.13.7": hits})
	assert.Equal(t, 0, len(ans))
}

func TestConfValidateFillsDefaults(t *testing.T) {
	conf := Conf{}
	conf.Validate()
	assert.Equal(t, defaultMinClusterSize, conf.MinClusterSize)
	assert.Equal(t, float64(defaultEpsilonSecs), conf.EpsilonSecs)
}
