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
	"syscall"

	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// SockRef is a borrowed socket descriptor. It does not own the descriptor and
// must not be used after the borrow ends.
type SockRef struct {
	fd uintptr
}

// NewSockRef borrows the raw descriptor fd. The caller keeps ownership.
func NewSockRef(fd uintptr) SockRef {
	return SockRef{fd: fd}
}

// Fd returns the raw descriptor.
func (s SockRef) Fd() uintptr {
	return s.fd
}

// Borrow calls f with the socket of c. The descriptor is kept alive and
// valid for the duration of f.
func Borrow(c syscall.Conn, f func(SockRef) error) error {
	raw, err := c.SyscallConn()
	if err != nil {
		return serrors.Wrap("accessing raw connection", err)
	}
	var ferr error
	if err := raw.Control(func(fd uintptr) {
		ferr = f(SockRef{fd: fd})
	}); err != nil {
		return err
	}
	return ferr
}
