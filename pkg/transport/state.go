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
	"errors"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// ErrUnsupportedPlatform is returned on platforms without a socket API the
// transport can drive.
var ErrUnsupportedPlatform = errors.New("platform not supported")

// SocketState is the per-socket state of the transport. It is created once
// when the socket is bound and lives as long as the socket. Send and Recv
// may be called concurrently.
type SocketState struct {
	caps    *Capabilities
	family  int
	logger  log.Logger
	metrics *Metrics
	errors  *errorLimiter
}

// NewSocketState probes the capabilities of the platform and configures the
// socket. It fails if a mandatory socket option cannot be set.
func NewSocketState(sock SockRef, opts ...Option) (*SocketState, error) {
	o := applyOptions(opts)
	return newSocketState(sock, &o)
}

func newSocketState(sock SockRef, o *options) (*SocketState, error) {
	caps := ProbeCapabilities()
	if o.disableGSO {
		caps.DisableGSO()
	}
	if o.disableGRO {
		caps.disableGRO()
	}
	family, err := sock.Family()
	if err != nil {
		return nil, serrors.Wrap("determining socket family", err)
	}
	s := &SocketState{
		caps:    caps,
		family:  family,
		logger:  o.logger,
		metrics: o.metrics,
		errors:  newErrorLimiter(o.now),
	}
	if err := s.Configure(sock); err != nil {
		return nil, err
	}
	s.logger.Debug("Socket configured", "capabilities", caps)
	return s, nil
}

// Capabilities returns the capabilities of the socket.
func (s *SocketState) Capabilities() *Capabilities {
	return s.caps
}

// Configure enables the socket options the transport relies on. It is
// idempotent. Only the options needed to receive ECN codepoints are
// mandatory, offloads and packet info degrade silently.
func (s *SocketState) Configure(sock SockRef) error {
	return s.configure(sock)
}

// Send sends transmits on sock without blocking. It returns the number of
// transmits fully handed to the kernel. If nothing could be sent because the
// socket buffer is full the error satisfies IsWouldBlock. A nil caps uses the
// capabilities of s.
//
// A segmented transmit split across several kernel messages only counts
// once its last message is accepted. If a later message would block, the
// chunks already accepted are sent again when the caller retries the
// transmit, and DatagramsSent counts them twice.
func (s *SocketState) Send(sock SockRef, caps *Capabilities, transmits []Transmit) (int, error) {
	if len(transmits) == 0 {
		return 0, nil
	}
	if caps == nil {
		caps = s.caps
	}
	for i := range transmits {
		if err := transmits[i].Validate(); err != nil {
			return 0, serrors.Wrap("invalid transmit", err, "index", i)
		}
	}
	return s.send(sock, caps, transmits)
}

// Recv receives up to min(len(bufs), len(meta), BatchSize) messages from
// sock without blocking in a single system call. It returns the number of
// filled entries. If no message is queued the error satisfies IsWouldBlock.
func (s *SocketState) Recv(sock SockRef, bufs [][]byte, meta []RecvMeta) (int, error) {
	n := min(len(bufs), len(meta), BatchSize)
	if n == 0 {
		return 0, nil
	}
	return s.recv(sock, bufs[:n], meta[:n])
}

// optional sets a socket option whose absence only degrades functionality.
// It reports whether the option was set.
func (s *SocketState) optional(sock SockRef, level, opt, value int, name string) bool {
	if err := sock.SetsockoptInt(level, opt, value); err != nil {
		s.logger.Debug("Optional socket option not supported", "option", name, "err", err)
		return false
	}
	return true
}
