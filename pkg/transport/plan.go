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

// maxUDPPayload is the largest payload of a single kernel message, coalesced
// or not (65535 - 20 byte IPv4 header - 8 byte UDP header).
const maxUDPPayload = 65507

// message is one kernel message of a send plan. It refers to the transmits
// by index so planning does not allocate per message.
type message struct {
	// first is the index of the first transmit the message carries.
	first int
	// count is the number of coalesced transmits. If count is 1 the payload
	// is Contents[off:end] of the first transmit.
	count    int
	off, end int
	// segSize is the UDP_SEGMENT value, 0 for a single datagram.
	segSize int
	// done is the number of transmits completed once the message is
	// accepted. Messages in the middle of a split transmit complete none.
	done int
}

// pieces calls f for each payload piece of m, in order.
func (m *message) pieces(ts []Transmit, f func([]byte)) {
	if m.count == 1 {
		f(ts[m.first].Contents[m.off:m.end])
		return
	}
	for _, t := range ts[m.first : m.first+m.count] {
		f(t.Contents)
	}
}

func (m *message) len(ts []Transmit) int {
	n := 0
	m.pieces(ts, func(b []byte) { n += len(b) })
	return n
}

// datagrams returns the number of datagrams the kernel emits for m.
func (m *message) datagrams(ts []Transmit) int {
	if m.segSize == 0 {
		return 1
	}
	return max(1, (m.len(ts)+m.segSize-1)/m.segSize)
}

// planMessages maps transmits onto kernel messages given the segmentation
// factor gso. The plan is appended to msgs.
//
// A segmented transmit becomes one message with a segment size, or several
// if it exceeds gso segments. Without offload it becomes one message per
// datagram. Consecutive single-datagram transmits to the same destination
// with the same ECN mark and source are coalesced into one segmented
// message if they have equal sizes. A shorter datagram ends such a run, and
// empty datagrams are never coalesced.
func planMessages(msgs []message, transmits []Transmit, gso int) []message {
	for i := 0; i < len(transmits); {
		t := &transmits[i]
		if t.segmented() {
			msgs = appendSegmented(msgs, t, i, gso)
			i++
			continue
		}
		n := 1
		if gso > 1 {
			n = coalescible(transmits[i:], gso)
		}
		m := message{first: i, count: n, end: len(t.Contents), done: n}
		if n > 1 {
			m.segSize = len(t.Contents)
		}
		msgs = append(msgs, m)
		i += n
	}
	return msgs
}

func appendSegmented(msgs []message, t *Transmit, idx, gso int) []message {
	seg := t.SegmentSize
	chunk := seg
	if gso > 1 {
		chunk = seg * max(1, min(gso, maxUDPPayload/seg))
	}
	for off := 0; off < len(t.Contents); off += chunk {
		m := message{first: idx, count: 1, off: off, end: min(off+chunk, len(t.Contents))}
		if m.end-m.off > seg {
			m.segSize = seg
		}
		if m.end == len(t.Contents) {
			m.done = 1
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// coalescible returns the number of leading transmits of ts that fit in one
// segmented message.
func coalescible(ts []Transmit, gso int) int {
	first := &ts[0]
	size := len(first.Contents)
	if size == 0 {
		return 1
	}
	total, n := size, 1
	for n < len(ts) && n < gso {
		t := &ts[n]
		l := len(t.Contents)
		if t.segmented() || l == 0 || l > size || total+l > maxUDPPayload ||
			t.Destination != first.Destination || t.ECN != first.ECN || t.SrcIP != first.SrcIP {
			break
		}
		total += l
		n++
		if l < size {
			break
		}
	}
	return n
}
