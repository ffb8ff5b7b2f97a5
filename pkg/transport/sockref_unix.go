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

//go:build unix

package transport

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// SetsockoptInt sets an integer socket option.
func (s SockRef) SetsockoptInt(level, opt, value int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(int(s.fd), level, opt, value))
}

// GetsockoptInt reads an integer socket option.
func (s SockRef) GetsockoptInt(level, opt int) (int, error) {
	v, err := unix.GetsockoptInt(int(s.fd), level, opt)
	return v, os.NewSyscallError("getsockopt", err)
}

// Family returns the address family of the socket, unix.AF_INET or
// unix.AF_INET6.
func (s SockRef) Family() (int, error) {
	sa, err := unix.Getsockname(int(s.fd))
	if err != nil {
		return 0, os.NewSyscallError("getsockname", err)
	}
	switch sa.(type) {
	case *unix.SockaddrInet4:
		return unix.AF_INET, nil
	case *unix.SockaddrInet6:
		return unix.AF_INET6, nil
	default:
		return 0, os.NewSyscallError("getsockname", unix.EAFNOSUPPORT)
	}
}

// IsWouldBlock reports whether err means the operation would have blocked.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
