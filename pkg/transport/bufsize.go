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
	"net"
	"syscall"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// setBufferSizes applies the socket buffer sizes of o to c. A kernel limit
// below the requested size is logged, not treated as an error.
func setBufferSizes(c *net.UDPConn, o *options) error {
	if o.sendBufferSize != 0 {
		err := setBufferSize(c, o.logger, "send", syscall.SO_SNDBUF,
			o.sendBufferSize, c.SetWriteBuffer)
		if err != nil {
			return err
		}
	}
	if o.receiveBufferSize != 0 {
		err := setBufferSize(c, o.logger, "receive", syscall.SO_RCVBUF,
			o.receiveBufferSize, c.SetReadBuffer)
		if err != nil {
			return err
		}
	}
	return nil
}

func setBufferSize(
	c *net.UDPConn,
	logger log.Logger,
	buffer string,
	opt int,
	target int,
	set func(int) error,
) error {

	before, err := bufferSize(c, opt)
	if err != nil {
		return serrors.Wrap("reading socket buffer size (before)", err,
			"buffer", buffer, "local", c.LocalAddr())
	}
	if err := set(target); err != nil {
		return serrors.Wrap("setting socket buffer size", err,
			"buffer", buffer, "local", c.LocalAddr())
	}
	after, err := bufferSize(c, opt)
	if err != nil {
		return serrors.Wrap("reading socket buffer size (after)", err,
			"buffer", buffer, "local", c.LocalAddr())
	}
	// The value reported by the kernel includes its bookkeeping overhead.
	if after/bufferSizeFactor < target {
		logger.Info("Socket buffer size smaller than requested",
			"buffer", buffer,
			"expected", target,
			"actual", after/bufferSizeFactor,
			"before", before/bufferSizeFactor,
		)
	}
	return nil
}

func bufferSize(c syscall.Conn, opt int) (int, error) {
	var size int
	err := Borrow(c, func(sock SockRef) error {
		var err error
		size, err = sock.GetsockoptInt(syscall.SOL_SOCKET, opt)
		return err
	})
	return size, err
}
