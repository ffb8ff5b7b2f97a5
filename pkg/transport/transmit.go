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

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// Transmit is an outgoing logical unit.
type Transmit struct {
	// Destination is the address the datagrams are sent to.
	Destination netip.AddrPort
	// ECN is the codepoint set on every datagram. The empty mark sends
	// Not-ECT.
	ECN ecn.Mark
	// Contents is the payload. With a SegmentSize it is a concatenation of
	// datagrams.
	Contents []byte
	// SegmentSize splits Contents into datagrams of this size, the last one
	// possibly shorter. Zero means Contents is a single datagram.
	SegmentSize int
	// SrcIP overrides the source address. The zero value lets the kernel
	// choose.
	SrcIP netip.Addr
}

// Validate checks the transmit invariants.
func (t *Transmit) Validate() error {
	if !t.Destination.IsValid() {
		return serrors.New("invalid destination", "destination", t.Destination)
	}
	if t.SegmentSize < 0 || t.SegmentSize > len(t.Contents) {
		return serrors.New("invalid segment size",
			"segment_size", t.SegmentSize, "len", len(t.Contents))
	}
	return nil
}

// segmented reports whether the transmit holds more than one datagram.
func (t *Transmit) segmented() bool {
	return t.SegmentSize > 0 && t.SegmentSize < len(t.Contents)
}

// Segments returns the number of datagrams in the transmit.
func (t *Transmit) Segments() int {
	if !t.segmented() {
		return 1
	}
	return (len(t.Contents) + t.SegmentSize - 1) / t.SegmentSize
}

// RecvMeta describes one received kernel message.
type RecvMeta struct {
	// Addr is the sender address.
	Addr netip.AddrPort
	// Len is the number of bytes written to the buffer.
	Len int
	// Stride is the size of each datagram in the buffer, the last one
	// possibly shorter. Stride equals Len if the kernel did not coalesce
	// datagrams.
	Stride int
	// ECN is the codepoint observed on the datagrams.
	ECN ecn.Mark
	// DstIP is the address the datagrams were sent to, if the platform
	// reports it.
	DstIP netip.Addr
}

// NumDatagrams returns the number of datagrams in the message.
func (m *RecvMeta) NumDatagrams() int {
	if m.Stride <= 0 || m.Stride >= m.Len {
		return 1
	}
	return (m.Len + m.Stride - 1) / m.Stride
}

// Datagrams splits buf, the buffer the message was received into, into its
// datagrams. The returned slices alias buf.
func (m *RecvMeta) Datagrams(buf []byte) [][]byte {
	buf = buf[:m.Len]
	if m.Stride <= 0 || m.Stride >= m.Len {
		return [][]byte{buf}
	}
	out := make([][]byte, 0, m.NumDatagrams())
	for len(buf) > m.Stride {
		out = append(out, buf[:m.Stride])
		buf = buf[m.Stride:]
	}
	return append(out, buf)
}
