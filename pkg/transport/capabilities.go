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
	"fmt"
	"sync/atomic"
)

// MaxSegments is the maximum number of datagrams in one offloaded kernel
// message (UDP_MAX_SEGMENTS on Linux).
const MaxSegments = 64

// Capabilities are the offloads available on a socket.
//
// The segmentation factor only ever decreases. It is lowered when the kernel
// rejects a segmented send, and concurrent senders converge on the lowered
// value. The receive aggregation factor is only lowered to 1 when the socket
// refuses receive offload. Both may be read while a socket is reconfigured.
type Capabilities struct {
	maxGSOSegments atomic.Int64
	groSegments    atomic.Int64
}

// NewCapabilities returns capabilities with the given factors. Values below
// 1 are raised to 1, values above MaxSegments are clamped.
func NewCapabilities(gsoSegments, groSegments int) *Capabilities {
	c := &Capabilities{}
	c.maxGSOSegments.Store(int64(clampSegments(gsoSegments)))
	c.groSegments.Store(int64(clampSegments(groSegments)))
	return c
}

func clampSegments(n int) int {
	return max(1, min(n, MaxSegments))
}

// MaxGSOSegments returns the current maximum number of datagrams per
// offloaded send. 1 means segmentation offload is unavailable.
func (c *Capabilities) MaxGSOSegments() int {
	return int(c.maxGSOSegments.Load())
}

// GROSegments returns the maximum number of datagrams the kernel may coalesce
// into one received message. 1 means receive offload is unavailable.
func (c *Capabilities) GROSegments() int {
	return int(c.groSegments.Load())
}

func (c *Capabilities) disableGRO() {
	c.groSegments.Store(1)
}

// DisableGSO turns segmentation offload off. It reports whether this call
// changed the factor.
func (c *Capabilities) DisableGSO() bool {
	return c.lowerGSO(1)
}

// lowerGSO lowers the segmentation factor to n. It never raises it.
func (c *Capabilities) lowerGSO(n int) bool {
	for {
		cur := c.maxGSOSegments.Load()
		if int64(n) >= cur {
			return false
		}
		if c.maxGSOSegments.CompareAndSwap(cur, int64(n)) {
			return true
		}
	}
}

// RecvBufferSize returns the buffer size needed to receive a fully
// coalesced message of datagrams of at most mtu bytes.
func (c *Capabilities) RecvBufferSize(mtu int) int {
	return min(mtu*c.GROSegments(), maxUDPPayload)
}

func (c *Capabilities) String() string {
	return fmt.Sprintf("{gso: %d, gro: %d}", c.MaxGSOSegments(), c.GROSegments())
}
