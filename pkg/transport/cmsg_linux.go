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

//go:build linux

package transport

import (
	"encoding/binary"
	"net/netip"
	"strconv"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/ecn"
)

const (
	// sendCmsgSpace holds a traffic class, a segment size and an IPv6
	// packet info message.
	sendCmsgSpace = 128
	recvCmsgSpace = 256
)

// encodeCmsgs appends the control messages for a message of t to b. The
// traffic class option follows the family of the destination, so IPv4
// destinations on a dual-stack socket get IP_TOS.
func encodeCmsgs(b []byte, t *Transmit, segSize int) []byte {
	var data []byte
	if bits := t.ECN.Bits(); bits != 0 {
		if t.Destination.Addr().Unmap().Is4() {
			b, data = appendCmsg(b, unix.IPPROTO_IP, unix.IP_TOS, 4)
		} else {
			b, data = appendCmsg(b, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, 4)
		}
		binary.NativeEndian.PutUint32(data, uint32(bits))
	}
	if segSize > 0 {
		b, data = appendCmsg(b, unix.SOL_UDP, unix.UDP_SEGMENT, 2)
		binary.NativeEndian.PutUint16(data, uint16(segSize))
	}
	if t.SrcIP.IsValid() {
		if src := t.SrcIP.Unmap(); src.Is4() {
			b, data = appendCmsg(b, unix.IPPROTO_IP, unix.IP_PKTINFO, unix.SizeofInet4Pktinfo)
			pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&data[0]))
			pi.Spec_dst = src.As4()
		} else {
			b, data = appendCmsg(b, unix.IPPROTO_IPV6, unix.IPV6_PKTINFO, unix.SizeofInet6Pktinfo)
			pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&data[0]))
			pi.Addr = src.As16()
		}
	}
	return b
}

// decodeCmsgs fills the ECN mark, the GRO stride and the destination
// address of meta from oob. Unknown messages are ignored.
func decodeCmsgs(oob []byte, meta *RecvMeta) {
	walkCmsgs(oob, func(level, typ int32, data []byte) {
		switch {
		case level == unix.IPPROTO_IP && typ == unix.IP_TOS && len(data) >= 1:
			meta.ECN = ecn.FromBits(data[0])
		case level == unix.IPPROTO_IPV6 && typ == unix.IPV6_TCLASS && len(data) >= 4:
			meta.ECN = ecn.FromBits(uint8(binary.NativeEndian.Uint32(data)))
		case level == unix.IPPROTO_IP && typ == unix.IP_PKTINFO &&
			len(data) >= unix.SizeofInet4Pktinfo:
			pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&data[0]))
			meta.DstIP = netip.AddrFrom4(pi.Addr)
		case level == unix.IPPROTO_IPV6 && typ == unix.IPV6_PKTINFO &&
			len(data) >= unix.SizeofInet6Pktinfo:
			pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&data[0]))
			meta.DstIP = netip.AddrFrom16(pi.Addr).Unmap()
		case level == unix.SOL_UDP && typ == unix.UDP_GRO:
			// Older kernels report the segment size as uint16.
			switch {
			case len(data) >= 4:
				meta.Stride = int(binary.NativeEndian.Uint32(data))
			case len(data) >= 2:
				meta.Stride = int(binary.NativeEndian.Uint16(data))
			}
		}
	})
}

// encodeSockaddr writes dst into sa in the representation of the socket
// family and returns the length of the address.
func encodeSockaddr(sa *unix.RawSockaddrInet6, family int, dst netip.AddrPort) uint32 {
	addr := dst.Addr()
	if family == unix.AF_INET && addr.Unmap().Is4() {
		sa4 := (*unix.RawSockaddrInet4)(unsafe.Pointer(sa))
		*sa4 = unix.RawSockaddrInet4{Family: unix.AF_INET, Addr: addr.Unmap().As4()}
		putPort(&sa4.Port, dst.Port())
		return unix.SizeofSockaddrInet4
	}
	*sa = unix.RawSockaddrInet6{
		Family:   unix.AF_INET6,
		Addr:     addr.As16(),
		Scope_id: zoneIndex(addr.Zone()),
	}
	putPort(&sa.Port, dst.Port())
	return unix.SizeofSockaddrInet6
}

func decodeSockaddr(sa *unix.RawSockaddrInet6) netip.AddrPort {
	switch sa.Family {
	case unix.AF_INET:
		sa4 := (*unix.RawSockaddrInet4)(unsafe.Pointer(sa))
		return netip.AddrPortFrom(netip.AddrFrom4(sa4.Addr), getPort(&sa4.Port))
	case unix.AF_INET6:
		addr := netip.AddrFrom16(sa.Addr).Unmap()
		if sa.Scope_id != 0 && addr.Is6() {
			addr = addr.WithZone(strconv.FormatUint(uint64(sa.Scope_id), 10))
		}
		return netip.AddrPortFrom(addr, getPort(&sa.Port))
	default:
		return netip.AddrPort{}
	}
}

// The port of a raw sockaddr is stored in network byte order.
func putPort(p *uint16, port uint16) {
	b := (*[2]byte)(unsafe.Pointer(p))
	binary.BigEndian.PutUint16(b[:], port)
}

func getPort(p *uint16) uint16 {
	b := (*[2]byte)(unsafe.Pointer(p))
	return binary.BigEndian.Uint16(b[:])
}
