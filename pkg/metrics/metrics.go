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

// Package metrics contains the metric interfaces used by the transport and
// a Prometheus factory to create them.
//
// Metrics are optional everywhere. A nil Counter is valid and all
// helpers in this package treat it as a no-op, so callers can leave metrics
// unset instead of passing dummies.
package metrics

// Counter describes a metric that accumulates values monotonically.
// prometheus.Counter implements it.
type Counter interface {
	Add(delta float64)
}

// CounterInc increases the passed in counter by 1.
func CounterInc(c Counter) {
	if c == nil {
		return
	}
	c.Add(1)
}

// CounterAdd increases the passed in counter by the amount specified.
func CounterAdd(c Counter, v float64) {
	if c == nil {
		return
	}
	c.Add(v)
}
