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
	"time"

	"github.com/scionproto/ecnudp/pkg/log"
)

type options struct {
	logger            log.Logger
	metrics           *Metrics
	disableGSO        bool
	disableGRO        bool
	sendBufferSize    int
	receiveBufferSize int
	now               func() time.Time
}

func applyOptions(opts []Option) options {
	o := options{
		now: time.Now,
	}
	for _, option := range opts {
		option(&o)
	}
	if o.logger == nil {
		o.logger = log.Root()
	}
	return o
}

// Option configures a SocketState or UDPConn.
type Option func(o *options)

// WithLogger sets the logger. The default is log.Root().
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics. By default no metrics are recorded.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithoutGSO disables segmentation offload even if the kernel supports it.
// Segmented transmits are then sent one datagram per message.
func WithoutGSO() Option {
	return func(o *options) {
		o.disableGSO = true
	}
}

// WithoutGRO disables receive offload even if the kernel supports it.
func WithoutGRO() Option {
	return func(o *options) {
		o.disableGRO = true
	}
}

// WithSendBufferSize sets SO_SNDBUF. Zero keeps the system default.
func WithSendBufferSize(size int) Option {
	return func(o *options) {
		o.sendBufferSize = size
	}
}

// WithReceiveBufferSize sets SO_RCVBUF. Zero keeps the system default.
func WithReceiveBufferSize(size int) Option {
	return func(o *options) {
		o.receiveBufferSize = size
	}
}
