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

// Package analysis searches processed hits for IPs with bursty request
// activity. An IP producing a dense cluster of requests within a short
// time window is likely an unrecognized crawler; such addresses are
// flagged in the output so a human reviewer can inspect them. The flag
// is a hint - it is never a reason to drop or ban anything.

package analysis

import (
	"math"
	"time"

	"logglobe/hitlog"

	"github.com/kelindar/dbscan"
	"github.com/rs/zerolog/log"
)

const (
	defaultMinClusterSize = 20
	defaultEpsilonSecs    = 60
)

// Conf configures the burst detection. The zero value disables nothing -
// missing attributes are replaced by defaults via Validate().
type Conf struct {

	// MinClusterSize is the minimum number of requests within a dense
	// cluster needed to flag the source IP
	MinClusterSize int `json:"minClusterSize"`

	// EpsilonSecs is the maximum time distance (in seconds) between
	// requests considered neighbors by the clustering
	EpsilonSecs float64 `json:"epsilonSecs"`
}

func (conf *Conf) Validate() {
	if conf.MinClusterSize <= 0 {
		conf.MinClusterSize = defaultMinClusterSize
	}
	if conf.EpsilonSecs <= 0 {
		conf.EpsilonSecs = defaultEpsilonSecs
	}
}

type clusterableHit struct {
	t time.Time
}

func (ch clusterableHit) DistanceTo(other dbscan.Point) float64 {
	return math.Abs((other.(clusterableHit)).t.Sub(ch.t).Seconds())
}

func (ch clusterableHit) Name() string {
	return ch.t.Format(time.RFC3339)
}

func wrapHitTimes(hits []*hitlog.Hit) []dbscan.Point {
	ans := make([]dbscan.Point, 0, len(hits))
	for _, h := range hits {
		t := h.GetTime()
		if !t.IsZero() {
			ans = append(ans, clusterableHit{t: t})
		}
	}
	return ans
}

// BurstDetector flags IPs with dense request clusters.
type BurstDetector struct {
	conf Conf
}

// Detect clusters request times of each IP via DBSCAN and returns
// the addresses having at least one cluster of MinClusterSize or
// more requests. Hits with a non-normalized (raw) timestamp cannot
// be positioned in time and are ignored.
func (bd *BurstDetector) Detect(hitsByIP map[string][]*hitlog.Hit) []string {
	ans := make([]string, 0, 10)
	for ip, hits := range hitsByIP {
		if len(hits) < bd.conf.MinClusterSize {
			continue
		}
		points := wrapHitTimes(hits)
		if len(points) < bd.conf.MinClusterSize {
			continue
		}
		clusters := dbscan.Cluster(bd.conf.MinClusterSize, bd.conf.EpsilonSecs, points...)
		for _, cl := range clusters {
			if len(cl) >= bd.conf.MinClusterSize {
				groupID := hitlog.GenerateRandomGroupID()
				log.Info().
					Str("ip", ip).
					Str("groupId", groupID).
					Int("clusterSize", len(cl)).
					Float64("epsilonSecs", bd.conf.EpsilonSecs).
					Msg("detected a request burst")
				ans = append(ans, ip)
				break
			}
		}
	}
	return ans
}

// NewBurstDetector is a factory for BurstDetector; conf is normalized
// via its Validate().
func NewBurstDetector(conf Conf) *BurstDetector {
	conf.Validate()
	return &BurstDetector{conf: conf}
}
