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

//go:build !linux && !darwin && !freebsd

package transport

import (
	"net/netip"
)

// BatchSize is the maximum number of messages passed to the kernel in one
// system call.
const BatchSize = 1

const bufferSizeFactor = 1

// configure is a no-op. The platform offers no socket option to receive the
// ECN codepoint, datagrams are sent and received without control messages.
func (s *SocketState) configure(sock SockRef) error {
	return nil
}

func (s *SocketState) send(sock SockRef, caps *Capabilities, transmits []Transmit) (int, error) {
	return s.sendEach(caps, transmits, func(t *Transmit, b []byte) error {
		return sendTo(sock, s.family, t.Destination, b)
	})
}

func (s *SocketState) recv(sock SockRef, bufs [][]byte, meta []RecvMeta) (int, error) {
	return s.recvOne(bufs, meta, func(b []byte, _ *RecvMeta) (int, netip.AddrPort, error) {
		return recvFrom(sock, b)
	})
}
