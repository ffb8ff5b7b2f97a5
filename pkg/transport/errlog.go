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
	"sync/atomic"
	"time"
)

// SendErrorLogInterval is the minimum time between two logged send errors of
// one socket.
const SendErrorLogInterval = 60 * time.Second

// errorLimiter decides whether a send error is logged. It stores the offset
// from epoch of the last logged error in nanoseconds.
type errorLimiter struct {
	epoch time.Time
	last  atomic.Int64
	now   func() time.Time
}

func newErrorLimiter(now func() time.Time) *errorLimiter {
	l := &errorLimiter{epoch: now(), now: now}
	// The first error after construction is always logged.
	l.last.Store(-int64(SendErrorLogInterval) - 1)
	return l
}

// allow reports whether an error noted now should be logged. Of several
// callers racing within one interval at most one is allowed.
func (l *errorLimiter) allow() bool {
	offset := int64(l.now().Sub(l.epoch))
	last := l.last.Load()
	if offset-last <= int64(SendErrorLogInterval) {
		return false
	}
	return l.last.CompareAndSwap(last, offset)
}

// logSendError logs err for transmit t at most once per SendErrorLogInterval.
func (s *SocketState) logSendError(err error, t *Transmit) {
	if !s.errors.allow() {
		return
	}
	s.logger.Error("Sending datagrams failed",
		"err", err,
		"destination", t.Destination,
		"src_ip", t.SrcIP,
		"ecn", t.ECN,
		"len", len(t.Contents),
		"segment_size", t.SegmentSize,
	)
}
