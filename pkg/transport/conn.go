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
	"errors"
	"net"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// UDPConn is an AsyncSocket driven by the network poller of the Go runtime.
type UDPConn struct {
	conn  *net.UDPConn
	raw   syscall.RawConn
	state *SocketState

	readCancel  canceler
	writeCancel canceler
}

var _ AsyncSocket = (*UDPConn)(nil)

// Listen binds a UDP socket to address. network is one of "udp", "udp4" and
// "udp6".
func Listen(ctx context.Context, network, address string, opts ...Option) (*UDPConn, error) {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, network, address)
	if err != nil {
		return nil, serrors.Wrap("listening on socket", err,
			"network", network, "address", address)
	}
	c, err := NewUDPConn(pc.(*net.UDPConn), opts...)
	if err != nil {
		pc.Close()
		return nil, err
	}
	return c, nil
}

// Dial connects a UDP socket to the remote address.
func Dial(ctx context.Context, network, address string, opts ...Option) (*UDPConn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, serrors.Wrap("dialing socket", err,
			"network", network, "address", address)
	}
	c, err := NewUDPConn(nc.(*net.UDPConn), opts...)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// NewUDPConn takes ownership of c and configures it. c must not be used
// directly afterwards.
func NewUDPConn(c *net.UDPConn, opts ...Option) (*UDPConn, error) {
	o := applyOptions(opts)
	if err := setBufferSizes(c, &o); err != nil {
		return nil, err
	}
	raw, err := c.SyscallConn()
	if err != nil {
		return nil, serrors.Wrap("accessing raw connection", err)
	}
	var state *SocketState
	err = Borrow(c, func(sock SockRef) error {
		var err error
		state, err = newSocketState(sock, &o)
		return err
	})
	if err != nil {
		return nil, serrors.Wrap("configuring socket", err, "local", c.LocalAddr())
	}
	u := &UDPConn{
		conn:  c,
		raw:   raw,
		state: state,
	}
	u.readCancel.setDeadline = c.SetReadDeadline
	u.writeCancel.setDeadline = c.SetWriteDeadline
	return u, nil
}

// Send sends transmits. It suspends while the socket buffer is full, until
// ctx is done. The result may be smaller than len(transmits), the caller
// retries the rest. A result of 0 with a nil error means the kernel rejected
// segmentation offload; the retry is sent without it.
func (c *UDPConn) Send(ctx context.Context, transmits []Transmit) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	stop := c.writeCancel.watch(ctx)
	defer stop()
	for {
		n, err := PollSend(c.raw, c.state, nil, transmits)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			// Another call was canceled.
			runtime.Gosched()
			continue
		}
		return 0, c.opError("write", err)
	}
}

// Recv receives into bufs. It suspends until at least one message arrived or
// ctx is done.
func (c *UDPConn) Recv(ctx context.Context, bufs [][]byte, meta []RecvMeta) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	stop := c.readCancel.watch(ctx)
	defer stop()
	for {
		n, err := PollRecv(c.raw, c.state, bufs, meta)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			runtime.Gosched()
			continue
		}
		return 0, c.opError("read", err)
	}
}

// TrySend makes a single send attempt without waiting for the socket to
// become writable.
func (c *UDPConn) TrySend(transmits []Transmit) (int, error) {
	var n int
	var err error
	if cerr := c.raw.Control(func(fd uintptr) {
		n, err = c.state.Send(SockRef{fd: fd}, nil, transmits)
	}); cerr != nil {
		return 0, c.opError("write", cerr)
	}
	return n, err
}

// TryRecv makes a single receive attempt without waiting for a message.
func (c *UDPConn) TryRecv(bufs [][]byte, meta []RecvMeta) (int, error) {
	var n int
	var err error
	if cerr := c.raw.Control(func(fd uintptr) {
		n, err = c.state.Recv(SockRef{fd: fd}, bufs, meta)
	}); cerr != nil {
		return 0, c.opError("read", cerr)
	}
	return n, err
}

// Capabilities returns the offload capabilities of the socket.
func (c *UDPConn) Capabilities() *Capabilities {
	return c.state.Capabilities()
}

func (c *UDPConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *UDPConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *UDPConn) Close() error {
	return c.conn.Close()
}

func (c *UDPConn) opError(op string, err error) error {
	return &net.OpError{
		Op:     op,
		Net:    c.conn.LocalAddr().Network(),
		Source: c.conn.LocalAddr(),
		Addr:   c.conn.RemoteAddr(),
		Err:    err,
	}
}

// aLongTimeAgo is a deadline in the past that wakes up blocked calls.
var aLongTimeAgo = time.Unix(1, 0)

// canceler interrupts blocked socket calls when their context is done by
// moving the socket deadline into the past. The deadline is reset once all
// canceled calls returned.
type canceler struct {
	mu          sync.Mutex
	pending     int
	setDeadline func(time.Time) error
}

func (c *canceler) watch(ctx context.Context) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	stopAfter := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.pending++
		_ = c.setDeadline(aLongTimeAgo)
		c.mu.Unlock()
		close(fired)
	})
	return func() {
		if stopAfter() {
			return
		}
		<-fired
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending--
		if c.pending == 0 {
			_ = c.setDeadline(time.Time{})
		}
	}
}
