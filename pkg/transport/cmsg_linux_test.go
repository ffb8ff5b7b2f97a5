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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/ecn"
)

type cmsg struct {
	Level, Type int32
	Data        []byte
}

func collectCmsgs(oob []byte) []cmsg {
	var out []cmsg
	walkCmsgs(oob, func(level, typ int32, data []byte) {
		out = append(out, cmsg{Level: level, Type: typ, Data: append([]byte{}, data...)})
	})
	return out
}

func int32Cmsg(b []byte, level, typ int, v uint32) []byte {
	b, data := appendCmsg(b, level, typ, 4)
	binary.NativeEndian.PutUint32(data, v)
	return b
}

func TestDecodeCmsgs(t *testing.T) {
	pktinfo4 := func(b []byte, addr netip.Addr) []byte {
		b, data := appendCmsg(b, unix.IPPROTO_IP, unix.IP_PKTINFO, unix.SizeofInet4Pktinfo)
		(*unix.Inet4Pktinfo)(unsafe.Pointer(&data[0])).Addr = addr.As4()
		return b
	}
	pktinfo6 := func(b []byte, addr netip.Addr) []byte {
		b, data := appendCmsg(b, unix.IPPROTO_IPV6, unix.IPV6_PKTINFO, unix.SizeofInet6Pktinfo)
		(*unix.Inet6Pktinfo)(unsafe.Pointer(&data[0])).Addr = addr.As16()
		return b
	}
	tos := func(b []byte, v byte) []byte {
		b, data := appendCmsg(b, unix.IPPROTO_IP, unix.IP_TOS, 1)
		data[0] = v
		return b
	}
	gro16 := func(b []byte, v uint16) []byte {
		b, data := appendCmsg(b, unix.SOL_UDP, unix.UDP_GRO, 2)
		binary.NativeEndian.PutUint16(data, v)
		return b
	}

	testCases := map[string]struct {
		OOB      []byte
		Expected RecvMeta
	}{
		"empty": {},
		"ipv4 tos": {
			OOB:      tos(nil, 0xb8|0b11),
			Expected: RecvMeta{ECN: ecn.Some(ecn.CE)},
		},
		"ipv4 not-ect": {
			OOB: tos(nil, 0xb8),
		},
		"ipv6 traffic class": {
			OOB:      int32Cmsg(nil, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, 0b10),
			Expected: RecvMeta{ECN: ecn.Some(ecn.ECT0)},
		},
		"gro int": {
			OOB:      int32Cmsg(nil, unix.SOL_UDP, unix.UDP_GRO, 1200),
			Expected: RecvMeta{Stride: 1200},
		},
		"gro uint16": {
			OOB:      gro16(nil, 1200),
			Expected: RecvMeta{Stride: 1200},
		},
		"ipv4 destination": {
			OOB:      pktinfo4(tos(nil, 0b01), netip.MustParseAddr("192.0.2.5")),
			Expected: RecvMeta{ECN: ecn.Some(ecn.ECT1), DstIP: netip.MustParseAddr("192.0.2.5")},
		},
		"mapped ipv6 destination": {
			OOB:      pktinfo6(nil, netip.MustParseAddr("::ffff:192.0.2.5")),
			Expected: RecvMeta{DstIP: netip.MustParseAddr("192.0.2.5")},
		},
		"ipv6 destination": {
			OOB:      pktinfo6(nil, netip.MustParseAddr("2001:db8::5")),
			Expected: RecvMeta{DstIP: netip.MustParseAddr("2001:db8::5")},
		},
		"unknown message": {
			OOB:      int32Cmsg(tos(nil, 0b11), unix.SOL_SOCKET, unix.SO_MARK, 7),
			Expected: RecvMeta{ECN: ecn.Some(ecn.CE)},
		},
		"truncated": {
			OOB:      tos(nil, 0b11)[:unix.CmsgLen(0)-1],
			Expected: RecvMeta{},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var meta RecvMeta
			decodeCmsgs(tc.OOB, &meta)
			assert.Equal(t, tc.Expected, meta)
		})
	}
}

func TestEncodeCmsgs(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		tr := &Transmit{Destination: netip.MustParseAddrPort("192.0.2.1:53")}
		assert.Empty(t, encodeCmsgs(nil, tr, 0))
	})
	t.Run("ipv4", func(t *testing.T) {
		tr := &Transmit{
			Destination: netip.MustParseAddrPort("192.0.2.1:53"),
			ECN:         ecn.Some(ecn.CE),
			SrcIP:       netip.MustParseAddr("192.0.2.2"),
		}
		msgs := collectCmsgs(encodeCmsgs(nil, tr, 1200))
		require.Len(t, msgs, 3)
		assert.Equal(t, int32(unix.IPPROTO_IP), msgs[0].Level)
		assert.Equal(t, int32(unix.IP_TOS), msgs[0].Type)
		assert.Equal(t, uint32(0b11), binary.NativeEndian.Uint32(msgs[0].Data))
		assert.Equal(t, int32(unix.SOL_UDP), msgs[1].Level)
		assert.Equal(t, int32(unix.UDP_SEGMENT), msgs[1].Type)
		assert.Equal(t, uint16(1200), binary.NativeEndian.Uint16(msgs[1].Data))
		assert.Equal(t, int32(unix.IP_PKTINFO), msgs[2].Type)
		pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&msgs[2].Data[0]))
		assert.Equal(t, [4]byte{192, 0, 2, 2}, pi.Spec_dst)
	})
	t.Run("mapped destination uses ip tos", func(t *testing.T) {
		tr := &Transmit{
			Destination: netip.MustParseAddrPort("[::ffff:192.0.2.1]:53"),
			ECN:         ecn.Some(ecn.ECT0),
		}
		msgs := collectCmsgs(encodeCmsgs(nil, tr, 0))
		require.Len(t, msgs, 1)
		assert.Equal(t, int32(unix.IP_TOS), msgs[0].Type)
	})
	t.Run("ipv6", func(t *testing.T) {
		tr := &Transmit{
			Destination: netip.MustParseAddrPort("[2001:db8::1]:53"),
			ECN:         ecn.Some(ecn.ECT1),
			SrcIP:       netip.MustParseAddr("2001:db8::2"),
		}
		msgs := collectCmsgs(encodeCmsgs(nil, tr, 0))
		require.Len(t, msgs, 2)
		assert.Equal(t, int32(unix.IPV6_TCLASS), msgs[0].Type)
		assert.Equal(t, uint32(0b01), binary.NativeEndian.Uint32(msgs[0].Data))
		assert.Equal(t, int32(unix.IPV6_PKTINFO), msgs[1].Type)
		pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&msgs[1].Data[0]))
		assert.Equal(t, netip.MustParseAddr("2001:db8::2").As16(), pi.Addr)
	})
	t.Run("fits slot", func(t *testing.T) {
		tr := &Transmit{
			Destination: netip.MustParseAddrPort("[2001:db8::1]:53"),
			ECN:         ecn.Some(ecn.CE),
			SrcIP:       netip.MustParseAddr("2001:db8::2"),
		}
		assert.LessOrEqual(t, len(encodeCmsgs(nil, tr, 1200)), sendCmsgSpace)
	})
}

func TestSockaddr(t *testing.T) {
	testCases := map[string]struct {
		Family   int
		Dst      string
		Expected string
	}{
		"ipv4":             {Family: unix.AF_INET, Dst: "192.0.2.1:4000", Expected: "192.0.2.1:4000"},
		"ipv6":             {Family: unix.AF_INET6, Dst: "[2001:db8::1]:443", Expected: "[2001:db8::1]:443"},
		"ipv4 on ipv6":     {Family: unix.AF_INET6, Dst: "192.0.2.1:53", Expected: "192.0.2.1:53"},
		"mapped on ipv4":   {Family: unix.AF_INET, Dst: "[::ffff:192.0.2.1]:53", Expected: "192.0.2.1:53"},
		"numeric zone":     {Family: unix.AF_INET6, Dst: "[fe80::1%7]:53", Expected: "[fe80::1%7]:53"},
		"high port number": {Family: unix.AF_INET, Dst: "192.0.2.1:65535", Expected: "192.0.2.1:65535"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var sa unix.RawSockaddrInet6
			n := encodeSockaddr(&sa, tc.Family, netip.MustParseAddrPort(tc.Dst))
			if tc.Family == unix.AF_INET {
				assert.Equal(t, uint32(unix.SizeofSockaddrInet4), n)
			} else {
				assert.Equal(t, uint32(unix.SizeofSockaddrInet6), n)
			}
			assert.Equal(t, tc.Expected, decodeSockaddr(&sa).String())
		})
	}
}
