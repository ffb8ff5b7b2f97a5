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
	"errors"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// BatchSize is the maximum number of messages passed to the kernel in one
// system call. The platform has no batched socket calls.
const BatchSize = 1

const bufferSizeFactor = 1

func (s *SocketState) configure(sock SockRef) error {
	dualStack := false
	if s.family == unix.AF_INET6 {
		err := sock.SetsockoptInt(unix.IPPROTO_IPV6, unix.IPV6_RECVTCLASS, 1)
		if err != nil {
			return serrors.Wrap("enabling traffic class reception", err,
				"option", "IPV6_RECVTCLASS")
		}
		s.optional(sock, unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, 1, "IPV6_RECVPKTINFO")
		v6only, err := sock.GetsockoptInt(unix.IPPROTO_IPV6, unix.IPV6_V6ONLY)
		dualStack = err == nil && v6only == 0
	}
	if s.family == unix.AF_INET || dualStack {
		err := sock.SetsockoptInt(unix.IPPROTO_IP, unix.IP_RECVTOS, 1)
		switch {
		case err != nil && !dualStack:
			return serrors.Wrap("enabling TOS reception", err, "option", "IP_RECVTOS")
		case err != nil:
			s.logger.Debug("Optional socket option not supported",
				"option", "IP_RECVTOS", "err", err)
		}
		s.optional(sock, unix.IPPROTO_IP, unix.IP_RECVDSTADDR, 1, "IP_RECVDSTADDR")
	}
	return nil
}

func (s *SocketState) send(sock SockRef, caps *Capabilities, transmits []Transmit) (int, error) {
	return s.sendEach(caps, transmits, func(t *Transmit, b []byte) error {
		oob := encodeCmsgs(t)
		sa := sockaddr(s.family, t.Destination)
		for {
			_, err := unix.SendmsgN(int(sock.fd), b, oob, sa, unix.MSG_DONTWAIT)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return os.NewSyscallError("sendmsg", err)
		}
	})
}

func (s *SocketState) recv(sock SockRef, bufs [][]byte, meta []RecvMeta) (int, error) {
	var oob [recvCmsgSpace]byte
	return s.recvOne(bufs, meta, func(b []byte, m *RecvMeta) (int, netip.AddrPort, error) {
		for {
			n, oobn, _, from, err := unix.Recvmsg(int(sock.fd), b, oob[:], unix.MSG_DONTWAIT)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil {
				return 0, netip.AddrPort{}, os.NewSyscallError("recvmsg", err)
			}
			decodeCmsgs(oob[:oobn], m)
			return n, addrPort(from), nil
		}
	})
}
