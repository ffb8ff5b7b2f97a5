// Copyright 2025 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package echo

import (
	"fmt"
	"io"
	"net/netip"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/olekukonko/tablewriter"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// counts holds the number of datagrams per ECN bit pattern.
type counts [4]atomic.Uint64

// PeerStats counts the ECN codepoints of the datagrams received from each
// peer. It keeps a bounded number of peers in an adaptive replacement cache,
// so frequent peers survive bursts of one-off senders.
type PeerStats struct {
	cache *arc.ARCCache[netip.AddrPort, *counts]
}

// NewPeerStats returns statistics for at most size peers.
func NewPeerStats(size int) (*PeerStats, error) {
	cache, err := arc.NewARC[netip.AddrPort, *counts](size)
	if err != nil {
		return nil, serrors.Wrap("creating peer cache", err, "size", size)
	}
	return &PeerStats{cache: cache}, nil
}

// Len returns the number of tracked peers.
func (s *PeerStats) Len() int {
	return s.cache.Len()
}

// Observe records n datagrams with the given mark from peer. It is a no-op
// on a nil receiver.
func (s *PeerStats) Observe(peer netip.AddrPort, mark ecn.Mark, n int) {
	if s == nil {
		return
	}
	c, ok := s.cache.Get(peer)
	if !ok {
		c = new(counts)
		s.cache.Add(peer, c)
	}
	c[mark.Bits()].Add(uint64(n))
}

// Record is the ECN statistics of one peer.
type Record struct {
	Peer   netip.AddrPort
	NotECT uint64
	ECT0   uint64
	ECT1   uint64
	CE     uint64
}

// Records returns the statistics of all tracked peers ordered by address.
func (s *PeerStats) Records() []Record {
	keys := s.cache.Keys()
	records := make([]Record, 0, len(keys))
	for _, peer := range keys {
		c, ok := s.cache.Peek(peer)
		if !ok {
			continue
		}
		records = append(records, Record{
			Peer:   peer,
			NotECT: c[0].Load(),
			ECT0:   c[ecn.ECT0].Load(),
			ECT1:   c[ecn.ECT1].Load(),
			CE:     c[ecn.CE].Load(),
		})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return a.Peer.Compare(b.Peer)
	})
	return records
}

// WriteTable writes the statistics as a table to w.
func (s *PeerStats) WriteTable(w io.Writer) {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	rows := [][]string{}
	for _, r := range s.Records() {
		rows = append(rows, []string{r.Peer.String(), u(r.NotECT), u(r.ECT0), u(r.ECT1), u(r.CE)})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"PEER", "NOT-ECT", "ECT(0)", "ECT(1)", "CE"})
	table.AppendBulk(rows)
	table.Render()
}

func (r Record) String() string {
	return fmt.Sprintf("%s not-ect=%d ect0=%d ect1=%d ce=%d",
		r.Peer, r.NotECT, r.ECT0, r.ECT1, r.CE)
}
