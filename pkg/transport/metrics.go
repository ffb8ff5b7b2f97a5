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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scionproto/ecnudp/pkg/metrics"
)

// Metrics are the counters maintained by a SocketState. Nil counters are
// skipped.
type Metrics struct {
	// DatagramsSent counts datagrams handed to the kernel.
	DatagramsSent metrics.Counter
	// DatagramsReceived counts received datagrams, after splitting
	// coalesced messages.
	DatagramsReceived metrics.Counter
	// SendErrors counts failed send calls, excluding would-block.
	SendErrors metrics.Counter
	// GSODisabled counts sockets that turned segmentation offload off after
	// a kernel rejection.
	GSODisabled metrics.Counter
}

// NewMetrics creates and registers the transport counters with the factory.
func NewMetrics(f metrics.Factory) *Metrics {
	return &Metrics{
		DatagramsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecnudp",
			Name:      "datagrams_sent_total",
			Help:      "Total number of datagrams handed to the kernel.",
		}),
		DatagramsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecnudp",
			Name:      "datagrams_received_total",
			Help:      "Total number of datagrams received.",
		}),
		SendErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecnudp",
			Name:      "send_errors_total",
			Help:      "Total number of failed send calls.",
		}),
		GSODisabled: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecnudp",
			Name:      "gso_disabled_total",
			Help:      "Total number of sockets that disabled segmentation offload.",
		}),
	}
}

func (m *Metrics) sent(n int) {
	if m == nil || n == 0 {
		return
	}
	metrics.CounterAdd(m.DatagramsSent, float64(n))
}

func (m *Metrics) received(n int) {
	if m == nil || n == 0 {
		return
	}
	metrics.CounterAdd(m.DatagramsReceived, float64(n))
}

func (m *Metrics) sendError() {
	if m == nil {
		return
	}
	metrics.CounterInc(m.SendErrors)
}

func (m *Metrics) gsoDisabled() {
	if m == nil {
		return
	}
	metrics.CounterInc(m.GSODisabled)
}
