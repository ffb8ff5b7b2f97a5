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

//go:build unix && !linux

package transport

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// sockaddr converts dst for a socket of the given family. IPv4 destinations
// are mapped on IPv6 sockets.
func sockaddr(family int, dst netip.AddrPort) unix.Sockaddr {
	addr := dst.Addr()
	if family == unix.AF_INET && addr.Unmap().Is4() {
		return &unix.SockaddrInet4{Port: int(dst.Port()), Addr: addr.Unmap().As4()}
	}
	return &unix.SockaddrInet6{
		Port:   int(dst.Port()),
		Addr:   addr.As16(),
		ZoneId: zoneIndex(addr.Zone()),
	}
}

// addrPort converts a socket address returned by the kernel.
func addrPort(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}
