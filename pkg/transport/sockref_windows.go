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
	"os"

	"golang.org/x/sys/windows"
)

// Winsock error codes not exported by x/sys/windows.
const (
	wsaeWouldBlock  = windows.Errno(10035)
	wsaeAFNoSupport = windows.Errno(10047)
)

// SetsockoptInt sets an integer socket option.
func (s SockRef) SetsockoptInt(level, opt, value int) error {
	err := windows.SetsockoptInt(windows.Handle(s.fd), level, opt, value)
	return os.NewSyscallError("setsockopt", err)
}

// GetsockoptInt reads an integer socket option.
func (s SockRef) GetsockoptInt(level, opt int) (int, error) {
	v, err := windows.GetsockoptInt(windows.Handle(s.fd), level, opt)
	return v, os.NewSyscallError("getsockopt", err)
}

// Family returns the address family of the socket, windows.AF_INET or
// windows.AF_INET6.
func (s SockRef) Family() (int, error) {
	sa, err := windows.Getsockname(windows.Handle(s.fd))
	if err != nil {
		return 0, os.NewSyscallError("getsockname", err)
	}
	switch sa.(type) {
	case *windows.SockaddrInet4:
		return windows.AF_INET, nil
	case *windows.SockaddrInet6:
		return windows.AF_INET6, nil
	default:
		return 0, os.NewSyscallError("getsockname", wsaeAFNoSupport)
	}
}

// IsWouldBlock reports whether err means the operation would have blocked.
func IsWouldBlock(err error) bool {
	return errors.Is(err, wsaeWouldBlock) || errors.Is(err, windows.ERROR_IO_PENDING)
}
