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

//go:build !unix && !windows

package transport

// SetsockoptInt is not supported on this platform.
func (s SockRef) SetsockoptInt(level, opt, value int) error {
	return ErrUnsupportedPlatform
}

// GetsockoptInt is not supported on this platform.
func (s SockRef) GetsockoptInt(level, opt int) (int, error) {
	return 0, ErrUnsupportedPlatform
}

// Family is not supported on this platform.
func (s SockRef) Family() (int, error) {
	return 0, ErrUnsupportedPlatform
}

// IsWouldBlock reports whether err means the operation would have blocked.
// Sockets are never driven without blocking on this platform.
func IsWouldBlock(err error) bool {
	return false
}
