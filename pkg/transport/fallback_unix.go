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

//go:build unix && !linux && !darwin && !freebsd

package transport

import (
	"errors"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

// sendTo sends b as a single datagram to dst.
func sendTo(sock SockRef, family int, dst netip.AddrPort, b []byte) error {
	for {
		err := unix.Sendto(int(sock.fd), b, unix.MSG_DONTWAIT, sockaddr(family, dst))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return os.NewSyscallError("sendto", err)
	}
}

// recvFrom receives a single datagram into b.
func recvFrom(sock SockRef, b []byte) (int, netip.AddrPort, error) {
	for {
		n, from, err := unix.Recvfrom(int(sock.fd), b, unix.MSG_DONTWAIT)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, netip.AddrPort{}, os.NewSyscallError("recvfrom", err)
		}
		return n, addrPort(from), nil
	}
}
