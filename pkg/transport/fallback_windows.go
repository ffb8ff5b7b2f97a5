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
	"os"

	"golang.org/x/sys/windows"
)

func toSockaddr(family int, dst netip.AddrPort) windows.Sockaddr {
	addr := dst.Addr()
	if family == windows.AF_INET && addr.Unmap().Is4() {
		return &windows.SockaddrInet4{Port: int(dst.Port()), Addr: addr.Unmap().As4()}
	}
	return &windows.SockaddrInet6{
		Port:   int(dst.Port()),
		Addr:   addr.As16(),
		ZoneId: zoneIndex(addr.Zone()),
	}
}

func fromSockaddr(sa windows.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}

// sendTo sends b as a single datagram to dst.
func sendTo(sock SockRef, family int, dst netip.AddrPort, b []byte) error {
	err := windows.Sendto(windows.Handle(sock.fd), b, 0, toSockaddr(family, dst))
	return os.NewSyscallError("sendto", err)
}

// recvFrom receives a single datagram into b.
func recvFrom(sock SockRef, b []byte) (int, netip.AddrPort, error) {
	n, from, err := windows.Recvfrom(windows.Handle(sock.fd), b, 0)
	if err != nil {
		return 0, netip.AddrPort{}, os.NewSyscallError("recvfrom", err)
	}
	return n, fromSockaddr(from), nil
}
