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
	"sort"
	"time"

	"github.com/czcorpus/cnc-gokit/collections"
)

// DefaultTailSize specifies how many most recent hits are
// kept in the snapshot for the table view.
const DefaultTailSize = 1000

// SnapshotBuilder accumulates enriched hits and produces the final
// snapshot value. It keeps one aggregate per distinct effective IP
// and a bounded window of the most recent hits (older ones survive
// only via their aggregates). The builder is owned by a single
// processing run and is not safe for concurrent use.
type SnapshotBuilder struct {
	tailSize   int
	totalHits  int
	aggregates map[string]*IPAggregate
	tail       *collections.CircularList[*Hit]
}

// AddHit registers a fully enriched hit. The respective IP aggregate
// is created on the first occurrence of the address and updated
// incrementally afterwards. Location attributes follow the
// "last non-empty value wins" rule with Lat/Lon treated as a pair.
func (sb *SnapshotBuilder) AddHit(h *Hit) {
	sb.totalHits++
	sb.tail.Append(h)
	agg, ok := sb.aggregates[h.IP]
	if !ok {
		agg = &IPAggregate{
			IP:        h.IP,
			FirstSeen: h.Datetime,
		}
		sb.aggregates[h.IP] = agg
	}
	agg.Count++
	agg.LastSeen = h.Datetime
	if h.Country != "" {
		agg.Country = h.Country
	}
	if h.City != "" {
		agg.City = h.City
	}
	if h.Lat != nil && h.Lon != nil {
		agg.Lat = h.Lat
		agg.Lon = h.Lon
	}
	if h.UAType != "" {
		agg.UAType = h.UAType
	}
}

// MarkSuspicious flags an already registered aggregate. Unknown
// addresses are ignored.
func (sb *SnapshotBuilder) MarkSuspicious(ip string) {
	agg, ok := sb.aggregates[ip]
	if ok {
		agg.Suspicious = true
	}
}

// TotalHits returns the number of hits registered so far (i.e. not
// just the ones remaining in the bounded tail).
func (sb *SnapshotBuilder) TotalHits() int {
	return sb.totalHits
}

// UniqueIPs returns the number of distinct effective IPs seen so far.
func (sb *SnapshotBuilder) UniqueIPs() int {
	return len(sb.aggregates)
}

// Build creates the final snapshot. Aggregates are ordered by
// descending hit count; the order of equal-count entries is
// undefined. Hits preserve their original log order.
func (sb *SnapshotBuilder) Build(generatedAt time.Time) *Snapshot {
	ips := make([]*IPAggregate, 0, len(sb.aggregates))
	for _, agg := range sb.aggregates {
		ips = append(ips, agg)
	}
	sort.Slice(ips, func(i, j int) bool {
		return ips[i].Count > ips[j].Count
	})
	hits := make([]*Hit, 0, sb.tail.Len())
	sb.tail.ForEach(func(i int, item *Hit) bool {
		hits = append(hits, item)
		return true
	})
	return &Snapshot{
		GeneratedAt: generatedAt.Format(time.RFC3339),
		TotalHits:   sb.totalHits,
		UniqueIPs:   len(sb.aggregates),
		IPs:         ips,
		Hits:        hits,
	}
}

// NewSnapshotBuilder is a factory for SnapshotBuilder. For a non-positive
// tailSize, DefaultTailSize is used.
func NewSnapshotBuilder(tailSize int) *SnapshotBuilder {
	if tailSize <= 0 {
		tailSize = DefaultTailSize
	}
	return &SnapshotBuilder{
		tailSize:   tailSize,
		aggregates: make(map[string]*IPAggregate),
		tail:       collections.NewCircularList[*Hit](tailSize),
	}
}
