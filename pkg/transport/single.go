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
	"net/netip"
	"sync"
)

// sendFunc sends b as a single datagram for t.
type sendFunc func(t *Transmit, b []byte) error

// recvFunc receives a single datagram into b and fills the control message
// fields of meta.
type recvFunc func(b []byte, meta *RecvMeta) (int, netip.AddrPort, error)

var planPool = sync.Pool{New: func() any { return new([]message) }}

// sendEach sends transmits one datagram per system call. Segmented
// transmits are split in software.
func (s *SocketState) sendEach(caps *Capabilities, transmits []Transmit, f sendFunc) (int, error) {
	plan := planPool.Get().(*[]message)
	defer planPool.Put(plan)

	*plan = planMessages((*plan)[:0], transmits, 1)
	defer clear(*plan)
	sent := 0
	for i := range *plan {
		m := &(*plan)[i]
		var payload []byte
		m.pieces(transmits, func(b []byte) { payload = b })
		if err := f(&transmits[m.first], payload); err != nil {
			return s.sendFailed(caps, transmits, m, sent, err)
		}
		sent += m.done
		s.metrics.sent(1)
	}
	return sent, nil
}

// recvOne receives a single datagram into bufs[0].
func (s *SocketState) recvOne(bufs [][]byte, meta []RecvMeta, f recvFunc) (int, error) {
	var m RecvMeta
	n, from, err := f(bufs[0], &m)
	if err != nil {
		return 0, err
	}
	m.Addr, m.Len, m.Stride = from, n, n
	meta[0] = m
	s.metrics.received(1)
	return 1, nil
}
