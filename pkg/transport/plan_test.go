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

package transport

import (
	"bytes"
	"math/rand/v2"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/scionproto/ecnudp/pkg/ecn"
)

var (
	dstA = netip.MustParseAddrPort("192.0.2.1:4000")
	dstB = netip.MustParseAddrPort("[2001:db8::1]:4000")
)

func tx(dst netip.AddrPort, n int) Transmit {
	return Transmit{Destination: dst, Contents: make([]byte, n)}
}

func segTx(dst netip.AddrPort, n, seg int) Transmit {
	t := tx(dst, n)
	t.SegmentSize = seg
	return t
}

func TestPlanMessages(t *testing.T) {
	ce := tx(dstA, 100)
	ce.ECN = ecn.Some(ecn.CE)
	withSrc := tx(dstA, 100)
	withSrc.SrcIP = netip.MustParseAddr("192.0.2.2")

	testCases := map[string]struct {
		Transmits []Transmit
		GSO       int
		Expected  []message
	}{
		"single": {
			Transmits: []Transmit{tx(dstA, 100)},
			GSO:       64,
			Expected:  []message{{first: 0, count: 1, end: 100, done: 1}},
		},
		"coalesce equal sizes": {
			Transmits: []Transmit{tx(dstA, 100), tx(dstA, 100), tx(dstA, 100)},
			GSO:       64,
			Expected:  []message{{first: 0, count: 3, end: 100, segSize: 100, done: 3}},
		},
		"shorter datagram ends run": {
			Transmits: []Transmit{tx(dstA, 100), tx(dstA, 100), tx(dstA, 50), tx(dstA, 100)},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 3, end: 100, segSize: 100, done: 3},
				{first: 3, count: 1, end: 100, done: 1},
			},
		},
		"longer datagram not coalesced": {
			Transmits: []Transmit{tx(dstA, 50), tx(dstA, 100)},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, end: 50, done: 1},
				{first: 1, count: 1, end: 100, done: 1},
			},
		},
		"destination change": {
			Transmits: []Transmit{tx(dstA, 100), tx(dstB, 100)},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, end: 100, done: 1},
				{first: 1, count: 1, end: 100, done: 1},
			},
		},
		"ecn change": {
			Transmits: []Transmit{tx(dstA, 100), ce},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, end: 100, done: 1},
				{first: 1, count: 1, end: 100, done: 1},
			},
		},
		"source change": {
			Transmits: []Transmit{tx(dstA, 100), withSrc},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, end: 100, done: 1},
				{first: 1, count: 1, end: 100, done: 1},
			},
		},
		"empty datagrams": {
			Transmits: []Transmit{tx(dstA, 0), tx(dstA, 0), tx(dstA, 0)},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, done: 1},
				{first: 1, count: 1, done: 1},
				{first: 2, count: 1, done: 1},
			},
		},
		"run limited by gso": {
			Transmits: []Transmit{tx(dstA, 10), tx(dstA, 10), tx(dstA, 10)},
			GSO:       2,
			Expected: []message{
				{first: 0, count: 2, end: 10, segSize: 10, done: 2},
				{first: 2, count: 1, end: 10, done: 1},
			},
		},
		"without offload": {
			Transmits: []Transmit{tx(dstA, 100), tx(dstA, 100)},
			GSO:       1,
			Expected: []message{
				{first: 0, count: 1, end: 100, done: 1},
				{first: 1, count: 1, end: 100, done: 1},
			},
		},
		"segmented": {
			Transmits: []Transmit{segTx(dstA, 250, 100)},
			GSO:       64,
			Expected:  []message{{first: 0, count: 1, end: 250, segSize: 100, done: 1}},
		},
		"segmented without offload": {
			Transmits: []Transmit{segTx(dstA, 250, 100)},
			GSO:       1,
			Expected: []message{
				{first: 0, count: 1, off: 0, end: 100},
				{first: 0, count: 1, off: 100, end: 200},
				{first: 0, count: 1, off: 200, end: 250, done: 1},
			},
		},
		"segmented split by gso": {
			Transmits: []Transmit{segTx(dstA, 450, 100)},
			GSO:       2,
			Expected: []message{
				{first: 0, count: 1, off: 0, end: 200, segSize: 100},
				{first: 0, count: 1, off: 200, end: 400, segSize: 100},
				{first: 0, count: 1, off: 400, end: 450, done: 1},
			},
		},
		"segmented never coalesced": {
			Transmits: []Transmit{tx(dstA, 100), segTx(dstA, 200, 100), tx(dstA, 100)},
			GSO:       64,
			Expected: []message{
				{first: 0, count: 1, end: 100, done: 1},
				{first: 1, count: 1, end: 200, segSize: 100, done: 1},
				{first: 2, count: 1, end: 100, done: 1},
			},
		},
		"segment size equals length": {
			Transmits: []Transmit{segTx(dstA, 100, 100), tx(dstA, 100)},
			GSO:       64,
			Expected:  []message{{first: 0, count: 2, end: 100, segSize: 100, done: 2}},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := planMessages(nil, tc.Transmits, tc.GSO)
			if diff := cmp.Diff(tc.Expected, got, cmp.AllowUnexported(message{})); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlanMessagesKernelLimit(t *testing.T) {
	ts := make([]Transmit, 64)
	for i := range ts {
		ts[i] = tx(dstA, 1400)
	}
	plan := planMessages(nil, ts, 64)
	for _, m := range plan {
		assert.LessOrEqual(t, m.len(ts), maxUDPPayload)
	}
	assert.Equal(t, 64, datagramsOf(plan, ts))
}

// TestPlanMessagesPreservesDatagrams checks on random batches that the plan
// emits exactly the datagrams of the transmits, in order.
func TestPlanMessagesPreservesDatagrams(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		ts := make([]Transmit, 1+rng.IntN(40))
		for i := range ts {
			dst := dstA
			if rng.IntN(8) == 0 {
				dst = dstB
			}
			n := []int{0, 1, 100, 100, 100, 1200, 3000}[rng.IntN(7)]
			ts[i] = tx(dst, n)
			for j := range ts[i].Contents {
				ts[i].Contents[j] = byte(rng.Uint32())
			}
			if n > 1 && rng.IntN(3) == 0 {
				ts[i].SegmentSize = 1 + rng.IntN(n)
			}
		}
		for _, gso := range []int{1, 2, 7, 64} {
			plan := planMessages(nil, ts, gso)

			var want, got []string
			wantCount, done := 0, 0
			for i := range ts {
				for _, d := range splitDatagrams(&ts[i]) {
					want = append(want, string(d))
				}
				wantCount += ts[i].Segments()
			}
			for i := range plan {
				m := &plan[i]
				for _, d := range emitted(m, ts) {
					got = append(got, string(d))
				}
				done += m.done
				assert.LessOrEqual(t, m.count, gso)
				assert.LessOrEqual(t, m.len(ts), maxUDPPayload)
			}
			assert.Equal(t, want, got)
			assert.Equal(t, wantCount, datagramsOf(plan, ts))
			assert.Equal(t, len(ts), done)
		}
	}
}

func datagramsOf(plan []message, ts []Transmit) int {
	n := 0
	for i := range plan {
		n += plan[i].datagrams(ts)
	}
	return n
}

// emitted returns the datagrams the kernel puts on the wire for m.
func emitted(m *message, ts []Transmit) [][]byte {
	var buf bytes.Buffer
	m.pieces(ts, func(b []byte) { buf.Write(b) })
	payload := buf.Bytes()
	if m.segSize == 0 {
		return [][]byte{payload}
	}
	var out [][]byte
	for len(payload) > m.segSize {
		out = append(out, payload[:m.segSize])
		payload = payload[m.segSize:]
	}
	return append(out, payload)
}

func splitDatagrams(t *Transmit) [][]byte {
	if !t.segmented() {
		return [][]byte{t.Contents}
	}
	meta := RecvMeta{Len: len(t.Contents), Stride: t.SegmentSize}
	return meta.Datagrams(t.Contents)
}
