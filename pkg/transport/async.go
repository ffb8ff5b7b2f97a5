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
	"context"
	"net"
)

// Poller waits for socket readiness. Read and Write call f whenever the
// socket may be ready and stop once f returns true. syscall.RawConn
// implements Poller.
type Poller interface {
	Read(f func(fd uintptr) (done bool)) error
	Write(f func(fd uintptr) (done bool)) error
}

// AsyncSocket is a UDP socket whose operations suspend the calling goroutine
// until the socket is ready or ctx is done.
type AsyncSocket interface {
	// Send sends transmits and returns the number handed to the kernel.
	Send(ctx context.Context, transmits []Transmit) (int, error)
	// Recv receives at least one message into bufs and returns the number of
	// filled entries of meta.
	Recv(ctx context.Context, bufs [][]byte, meta []RecvMeta) (int, error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// PollSend sends transmits on the socket behind p. It attempts a send each
// time p reports the socket writable and waits again while the socket
// buffer is full. If p fails before an attempt completes its error is
// returned and no transmit was sent.
func PollSend(p Poller, st *SocketState, caps *Capabilities, transmits []Transmit) (int, error) {
	var n int
	var err error
	perr := p.Write(func(fd uintptr) bool {
		n, err = st.Send(SockRef{fd: fd}, caps, transmits)
		return !IsWouldBlock(err)
	})
	if perr != nil {
		return 0, perr
	}
	return n, err
}

// PollRecv receives into bufs from the socket behind p. It attempts a receive
// each time p reports the socket readable and waits again while no message
// is queued.
func PollRecv(p Poller, st *SocketState, bufs [][]byte, meta []RecvMeta) (int, error) {
	var n int
	var err error
	perr := p.Read(func(fd uintptr) bool {
		n, err = st.Recv(SockRef{fd: fd}, bufs, meta)
		return !IsWouldBlock(err)
	})
	if perr != nil {
		return 0, perr
	}
	return n, err
}
