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

// sendFailed classifies a failed send system call. head is the first
// message of the failed call and sent the number of transmits completed
// before it.
func (s *SocketState) sendFailed(
	caps *Capabilities,
	transmits []Transmit,
	head *message,
	sent int,
	err error,
) (int, error) {

	if IsWouldBlock(err) {
		if sent > 0 {
			return sent, nil
		}
		return 0, err
	}
	if head.segSize > 0 && gsoRejected(err) {
		if caps.DisableGSO() {
			s.metrics.gsoDisabled()
			s.logger.Info("Segmentation offload disabled", "err", err,
				"segment_size", head.segSize)
		}
		return sent, nil
	}
	s.metrics.sendError()
	s.logSendError(err, &transmits[head.first])
	// The error is reported again by the kernel when the caller retries the
	// remaining transmits.
	if sent > 0 {
		return sent, nil
	}
	return 0, err
}
