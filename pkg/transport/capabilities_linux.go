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
	"golang.org/x/sys/unix"
)

// ProbeCapabilities determines the offloads supported by the running kernel.
// It uses a throwaway socket and performs no network I/O. Missing support
// yields a factor of 1, never an error.
func ProbeCapabilities() *Capabilities {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return NewCapabilities(1, 1)
	}
	defer unix.Close(fd)
	return probeSocket(SockRef{fd: uintptr(fd)})
}

func probeSocket(sock SockRef) *Capabilities {
	gso, gro := 1, 1
	// Kernels without UDP_SEGMENT answer ENOPROTOOPT.
	if _, err := sock.GetsockoptInt(unix.SOL_UDP, unix.UDP_SEGMENT); err == nil {
		gso = MaxSegments
	}
	if err := sock.SetsockoptInt(unix.SOL_UDP, unix.UDP_GRO, 1); err == nil {
		gro = MaxSegments
	}
	return NewCapabilities(gso, gro)
}
