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

//go:build unix

package transport

import (
	"bytes"
	"net/netip"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/metrics"
)

func TestSendEachSplitsSegments(t *testing.T) {
	s, m := newTestState(t)
	payload := bytes.Repeat([]byte{0xab}, 350)
	dst := netip.MustParseAddrPort("192.0.2.1:53")
	var got [][]byte
	n, err := s.sendEach(NewCapabilities(1, 1), []Transmit{
		{Destination: dst, Contents: payload, SegmentSize: 100},
		{Destination: dst, Contents: []byte("x")},
	}, func(tr *Transmit, b []byte) error {
		assert.Equal(t, dst, tr.Destination)
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, got, 5)
	for i, want := range []int{100, 100, 100, 50, 1} {
		assert.Len(t, got[i], want)
	}
	assert.Equal(t, 5.0, metrics.CounterValue(m.DatagramsSent))
}

func TestSendEachFailure(t *testing.T) {
	dst := netip.MustParseAddrPort("192.0.2.1:53")
	transmits := []Transmit{
		{Destination: dst, Contents: []byte("a")},
		{Destination: dst, Contents: make([]byte, 20), SegmentSize: 10},
	}
	testCases := map[string]struct {
		Errno   error
		FailAt  int
		Want    int
		WantErr func(t *testing.T, err error)
		Errors  float64
		Sent    float64
	}{
		"would block first": {
			Errno: unix.EAGAIN, FailAt: 0, Want: 0,
			WantErr: func(t *testing.T, err error) { assert.True(t, IsWouldBlock(err)) },
		},
		"would block inside segmented transmit": {
			Errno: unix.EAGAIN, FailAt: 2, Want: 1,
			WantErr: func(t *testing.T, err error) { assert.NoError(t, err) },
			// The accepted chunk is counted but the transmit is not.
			Sent: 2,
		},
		"error first": {
			Errno: unix.EACCES, FailAt: 0, Want: 0,
			WantErr: func(t *testing.T, err error) { assert.ErrorIs(t, err, unix.EACCES) },
			Errors:  1,
		},
		"error later": {
			Errno: unix.EACCES, FailAt: 1, Want: 1,
			WantErr: func(t *testing.T, err error) { assert.NoError(t, err) },
			Errors:  1,
			Sent:    1,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			s, m := newTestState(t)
			calls := 0
			n, err := s.sendEach(NewCapabilities(1, 1), transmits,
				func(*Transmit, []byte) error {
					defer func() { calls++ }()
					if calls == tc.FailAt {
						return os.NewSyscallError("sendto", tc.Errno)
					}
					return nil
				})
			tc.WantErr(t, err)
			assert.Equal(t, tc.Want, n)
			assert.Equal(t, tc.Errors, metrics.CounterValue(m.SendErrors))
			assert.Equal(t, tc.Sent, metrics.CounterValue(m.DatagramsSent))
		})
	}
}

func TestRecvOne(t *testing.T) {
	s, _ := newTestState(t)
	from := netip.MustParseAddrPort("192.0.2.7:4000")
	bufs := [][]byte{make([]byte, 100), make([]byte, 100)}
	meta := make([]RecvMeta, 2)

	n, err := s.recvOne(bufs, meta, func(b []byte, _ *RecvMeta) (int, netip.AddrPort, error) {
		return copy(b, "plain"), from, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, RecvMeta{Addr: from, Len: 5, Stride: 5}, meta[0])
	assert.Equal(t, ecn.Mark{}, meta[0].ECN)
	assert.False(t, meta[0].DstIP.IsValid())

	n, err = s.recvOne(bufs, meta, func([]byte, *RecvMeta) (int, netip.AddrPort, error) {
		return 0, netip.AddrPort{}, os.NewSyscallError("recvfrom", unix.EAGAIN)
	})
	assert.True(t, IsWouldBlock(err))
	assert.Zero(t, n)
}
