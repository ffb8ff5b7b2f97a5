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

// Package transport is a UDP datagram transport with per-datagram ECN
// marking, segmentation offload and batched system calls.
//
// The package is layered:
//
//   - SockRef is a borrowed socket descriptor. Any syscall.Conn can lend one
//     through Borrow.
//   - SocketState holds the negotiated Capabilities of one socket and
//     performs non-blocking batched sends and receives on a SockRef. Control
//     messages carry the ECN codepoint, the GSO segment size and the packet
//     info in both directions.
//   - PollSend and PollRecv drive SocketState from a Poller, i.e. the
//     readiness notifications of a runtime. syscall.RawConn is a Poller that
//     parks the goroutine on the Go netpoller while the socket would block.
//   - UDPConn wraps a *net.UDPConn and implements AsyncSocket with context
//     cancellation.
//
// # Sending
//
// A Transmit is one logical unit. With a SegmentSize its contents are a
// concatenation of equally sized datagrams, the last one possibly shorter.
// Send returns the number of transmits fully handed to the kernel. Entries
// past that count were not sent and should be retried by the caller. This
// includes the case where the kernel rejects segmentation offload: the
// Capabilities are lowered and the remaining transmits go out one datagram
// per message on the next call.
//
// # Receiving
//
// Recv fills one RecvMeta per kernel message. With receive offload a single
// message may hold several datagrams, in which case Stride is the size of
// each datagram and RecvMeta.Datagrams splits the buffer.
//
// Linux supports batching (sendmmsg/recvmmsg), GSO and GRO. darwin and
// freebsd support ECN and packet info with one datagram per call. Other
// platforms are not supported.
package transport
