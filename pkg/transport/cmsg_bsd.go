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

//go:build darwin || freebsd

package transport

import (
	"encoding/binary"
	"net/netip"
	"runtime"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/ecn"
)

const recvCmsgSpace = 256

// encodeCmsgs returns the control messages for t. IPv6 traffic class and
// packet info are marshaled by x/net. IP_TOS is written by hand because x/net
// does not support it: darwin expects an int, freebsd a single byte.
func encodeCmsgs(t *Transmit) []byte {
	var b []byte
	bits := t.ECN.Bits()
	if t.Destination.Addr().Unmap().Is4() {
		if bits != 0 {
			n := 4
			if runtime.GOOS == "freebsd" {
				n = 1
			}
			var data []byte
			b, data = appendCmsg(b, unix.IPPROTO_IP, unix.IP_TOS, n)
			if n == 4 {
				binary.NativeEndian.PutUint32(data, uint32(bits))
			} else {
				data[0] = bits
			}
		}
		if t.SrcIP.IsValid() {
			cm := ipv4.ControlMessage{Src: t.SrcIP.Unmap().AsSlice()}
			b = append(b, cm.Marshal()...)
		}
		return b
	}
	if bits == 0 && !t.SrcIP.IsValid() {
		return nil
	}
	cm := ipv6.ControlMessage{TrafficClass: int(bits)}
	if t.SrcIP.IsValid() {
		cm.Src = t.SrcIP.AsSlice()
	}
	return append(b, cm.Marshal()...)
}

// decodeCmsgs fills the ECN mark and the destination address of meta from
// oob.
func decodeCmsgs(oob []byte, meta *RecvMeta) {
	var cm6 ipv6.ControlMessage
	if cm6.Parse(oob) == nil {
		if cm6.TrafficClass != 0 {
			meta.ECN = ecn.FromBits(uint8(cm6.TrafficClass))
		}
		if addr, ok := netip.AddrFromSlice(cm6.Dst); ok {
			meta.DstIP = addr.Unmap()
		}
	}
	var cm4 ipv4.ControlMessage
	if cm4.Parse(oob) == nil {
		if addr, ok := netip.AddrFromSlice(cm4.Dst); ok {
			meta.DstIP = addr.Unmap()
		}
	}
	walkCmsgs(oob, func(level, typ int32, data []byte) {
		if level == unix.IPPROTO_IP && (typ == unix.IP_RECVTOS || typ == unix.IP_TOS) &&
			len(data) >= 1 {
			meta.ECN = ecn.FromBits(data[0])
		}
	})
}
