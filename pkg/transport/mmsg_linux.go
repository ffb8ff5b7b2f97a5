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

//go:build linux

package transport

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmsghdr is struct mmsghdr. Go pads the struct to the alignment of Msghdr,
// which matches the C layout.
type mmsghdr struct {
	hdr unix.Msghdr
	len uint32
}

func sendmmsg(fd uintptr, hdrs []mmsghdr) (int, error) {
	n, _, errno := unix.Syscall6(unix.SYS_SENDMMSG,
		fd,
		uintptr(unsafe.Pointer(&hdrs[0])),
		uintptr(len(hdrs)),
		unix.MSG_DONTWAIT,
		0, 0)
	if errno != 0 {
		return 0, os.NewSyscallError("sendmmsg", errno)
	}
	return int(n), nil
}

func recvmmsg(fd uintptr, hdrs []mmsghdr) (int, error) {
	n, _, errno := unix.Syscall6(unix.SYS_RECVMMSG,
		fd,
		uintptr(unsafe.Pointer(&hdrs[0])),
		uintptr(len(hdrs)),
		unix.MSG_DONTWAIT,
		0, // no timeout
		0)
	if errno != 0 {
		return 0, os.NewSyscallError("recvmmsg", errno)
	}
	return int(n), nil
}
