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

//go:build linux || darwin || freebsd

package transport

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// appendCmsg appends a control message with n bytes of data to b. It returns
// the extended buffer and the data area of the new message.
func appendCmsg(b []byte, level, typ, n int) ([]byte, []byte) {
	off := len(b)
	b = append(b, make([]byte, unix.CmsgSpace(n))...)
	h := (*unix.Cmsghdr)(unsafe.Pointer(&b[off]))
	h.Level = int32(level)
	h.Type = int32(typ)
	h.SetLen(unix.CmsgLen(n))
	return b, b[off+unix.CmsgLen(0) : off+unix.CmsgLen(n)]
}

// walkCmsgs calls f for every well-formed control message in oob. It stops
// at the first truncated header.
func walkCmsgs(oob []byte, f func(level, typ int32, data []byte)) {
	hdrLen := unix.CmsgLen(0)
	for len(oob) >= hdrLen {
		h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
		l := int(h.Len)
		if l < hdrLen || l > len(oob) {
			return
		}
		f(h.Level, h.Type, oob[hdrLen:l])
		next := unix.CmsgSpace(l - hdrLen)
		if next >= len(oob) {
			return
		}
		oob = oob[next:]
	}
}
