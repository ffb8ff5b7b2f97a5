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

package transport_test

import (
	"bytes"
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/log/testlog"
	"github.com/scionproto/ecnudp/pkg/metrics"
	"github.com/scionproto/ecnudp/pkg/transport"
)

type datagram struct {
	Payload []byte
	ECN     ecn.Mark
	From    netip.AddrPort
	DstIP   netip.Addr
}

func listen(t *testing.T, network, address string, opts ...transport.Option) *transport.UDPConn {
	t.Helper()
	opts = append([]transport.Option{transport.WithLogger(testlog.NewLogger(t))}, opts...)
	c, err := transport.Listen(context.Background(), network, address, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// receive collects datagrams until want have arrived, splitting coalesced
// messages.
func receive(t *testing.T, c *transport.UDPConn, want int) []datagram {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bufs := make([][]byte, transport.BatchSize)
	for i := range bufs {
		bufs[i] = make([]byte, 1<<16)
	}
	meta := make([]transport.RecvMeta, transport.BatchSize)
	var out []datagram
	for len(out) < want {
		n, err := c.Recv(ctx, bufs, meta)
		require.NoError(t, err)
		require.Positive(t, n)
		for i := range n {
			for _, d := range meta[i].Datagrams(bufs[i]) {
				out = append(out, datagram{
					Payload: bytes.Clone(d),
					ECN:     meta[i].ECN,
					From:    meta[i].Addr,
					DstIP:   meta[i].DstIP,
				})
			}
		}
	}
	return out
}

func TestECNRoundTrip(t *testing.T) {
	testCases := map[string]struct {
		Network  string
		Loopback string
		IPv6     bool
	}{
		"ipv4": {Network: "udp4", Loopback: "127.0.0.1:0"},
		"ipv6": {Network: "udp6", Loopback: "[::1]:0", IPv6: true},
	}
	marks := []ecn.Mark{
		{},
		ecn.Some(ecn.ECT0),
		ecn.Some(ecn.ECT1),
		ecn.Some(ecn.CE),
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if tc.IPv6 && !nettest.SupportsIPv6() {
				t.Skip("IPv6 not supported")
			}
			sender := listen(t, tc.Network, tc.Loopback)
			receiver := listen(t, tc.Network, tc.Loopback)
			dst := addrPortOf(receiver.LocalAddr())

			for _, mark := range marks {
				n, err := sender.Send(context.Background(), []transport.Transmit{{
					Destination: dst,
					ECN:         mark,
					Contents:    []byte("hello"),
				}})
				require.NoError(t, err)
				require.Equal(t, 1, n)

				got := receive(t, receiver, 1)
				require.Len(t, got, 1)
				assert.Equal(t, mark, got[0].ECN, mark.String())
				assert.Equal(t, "hello", string(got[0].Payload))
				assert.Equal(t, addrPortOf(sender.LocalAddr()), got[0].From)
				assert.Equal(t, dst.Addr(), got[0].DstIP)
			}
		})
	}
}

func TestRecvMetaSingleDatagram(t *testing.T) {
	sender := listen(t, "udp4", "127.0.0.1:0")
	receiver := listen(t, "udp4", "127.0.0.1:0")
	_, err := sender.Send(context.Background(), []transport.Transmit{{
		Destination: addrPortOf(receiver.LocalAddr()),
		ECN:         ecn.Some(ecn.CE),
		Contents:    make([]byte, 300),
	}})
	require.NoError(t, err)

	bufs := [][]byte{make([]byte, 1500)}
	meta := make([]transport.RecvMeta, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := receiver.Recv(ctx, bufs, meta)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, 300, meta[0].Len)
	assert.Equal(t, meta[0].Len, meta[0].Stride)
	assert.Equal(t, ecn.Some(ecn.CE), meta[0].ECN)
}

func TestDualStackIPv4Destination(t *testing.T) {
	if !nettest.SupportsIPv6() {
		t.Skip("IPv6 not supported")
	}
	sender := listen(t, "udp", "[::]:0")
	receiver := listen(t, "udp4", "127.0.0.1:0")
	n, err := sender.Send(context.Background(), []transport.Transmit{{
		Destination: netip.AddrPortFrom(
			netip.MustParseAddr("::ffff:127.0.0.1"), addrPortOf(receiver.LocalAddr()).Port()),
		ECN:      ecn.Some(ecn.ECT1),
		Contents: []byte("mapped"),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	got := receive(t, receiver, 1)
	assert.Equal(t, ecn.Some(ecn.ECT1), got[0].ECN)
	assert.True(t, got[0].From.Addr().Is4())
}

func TestZeroLengthDatagrams(t *testing.T) {
	sender := listen(t, "udp4", "127.0.0.1:0")
	receiver := listen(t, "udp4", "127.0.0.1:0")
	dst := addrPortOf(receiver.LocalAddr())
	transmits := []transport.Transmit{
		{Destination: dst},
		{Destination: dst},
		{Destination: dst},
	}
	n, err := sender.Send(context.Background(), transmits)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bufs := make([][]byte, transport.BatchSize)
	for i := range bufs {
		bufs[i] = make([]byte, 1500)
	}
	meta := make([]transport.RecvMeta, transport.BatchSize)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err = receiver.Recv(ctx, bufs, meta)
	require.NoError(t, err)
	require.Equal(t, 3, n, "one receive returns every empty datagram")
	for i := range n {
		assert.Zero(t, meta[i].Len)
		assert.Zero(t, meta[i].Stride)
		assert.Equal(t, dst.Addr(), meta[i].DstIP)
	}
}

func TestSegmentedSend(t *testing.T) {
	testCases := map[string]struct {
		SenderOpts   []transport.Option
		ReceiverOpts []transport.Option
	}{
		"offload":     {},
		"without gso": {SenderOpts: []transport.Option{transport.WithoutGSO()}},
		"without gro": {ReceiverOpts: []transport.Option{transport.WithoutGRO()}},
		"no offloading": {
			SenderOpts:   []transport.Option{transport.WithoutGSO()},
			ReceiverOpts: []transport.Option{transport.WithoutGRO()},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			sent := metrics.NewTestCounter()
			sender := listen(t, "udp4", "127.0.0.1:0", append(tc.SenderOpts,
				transport.WithMetrics(&transport.Metrics{DatagramsSent: sent}))...)
			receiver := listen(t, "udp4", "127.0.0.1:0", tc.ReceiverOpts...)

			payload := make([]byte, 350)
			for i := range payload {
				payload[i] = byte(i)
			}
			n, err := sender.Send(context.Background(), []transport.Transmit{{
				Destination: addrPortOf(receiver.LocalAddr()),
				ECN:         ecn.Some(ecn.ECT0),
				Contents:    payload,
				SegmentSize: 100,
			}})
			require.NoError(t, err)
			require.Equal(t, 1, n)
			assert.Equal(t, 4.0, metrics.CounterValue(sent))

			got := receive(t, receiver, 4)
			require.Len(t, got, 4)
			for i, d := range got {
				assert.Equal(t, payload[i*100:min((i+1)*100, len(payload))], d.Payload)
				assert.Equal(t, ecn.Some(ecn.ECT0), d.ECN)
			}
		})
	}
}

func TestSendCoalescedBatch(t *testing.T) {
	received := metrics.NewTestCounter()
	sender := listen(t, "udp4", "127.0.0.1:0")
	receiver := listen(t, "udp4", "127.0.0.1:0",
		transport.WithMetrics(&transport.Metrics{DatagramsReceived: received}))
	dst := addrPortOf(receiver.LocalAddr())

	transmits := make([]transport.Transmit, 40)
	for i := range transmits {
		transmits[i] = transport.Transmit{
			Destination: dst,
			Contents:    bytes.Repeat([]byte{byte(i)}, 200),
		}
	}
	transmits[39].Contents = transmits[39].Contents[:50]
	n, err := sender.Send(context.Background(), transmits)
	require.NoError(t, err)
	require.Equal(t, len(transmits), n)

	got := receive(t, receiver, len(transmits))
	require.Len(t, got, len(transmits))
	for i, d := range got {
		assert.Equal(t, transmits[i].Contents, d.Payload)
	}
	assert.Equal(t, float64(len(transmits)), metrics.CounterValue(received))
}

func TestSendSourceAddress(t *testing.T) {
	sender := listen(t, "udp4", "0.0.0.0:0")
	receiver := listen(t, "udp4", "127.0.0.1:0")
	_, err := sender.Send(context.Background(), []transport.Transmit{{
		Destination: addrPortOf(receiver.LocalAddr()),
		Contents:    []byte("src"),
		SrcIP:       netip.MustParseAddr("127.0.0.2"),
	}})
	require.NoError(t, err)
	got := receive(t, receiver, 1)
	assert.Equal(t, netip.MustParseAddr("127.0.0.2"), got[0].From.Addr())
}

func TestRecvCancel(t *testing.T) {
	sender := listen(t, "udp4", "127.0.0.1:0")
	receiver := listen(t, "udp4", "127.0.0.1:0")
	bufs := [][]byte{make([]byte, 1500)}
	meta := make([]transport.RecvMeta, 1)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	n, err := receiver.Recv(ctx, bufs, meta)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)

	_, err = receiver.Recv(ctx, bufs, meta)
	assert.ErrorIs(t, err, context.Canceled, "already canceled")

	// The socket is usable after cancellation.
	_, err = sender.Send(context.Background(), []transport.Transmit{{
		Destination: addrPortOf(receiver.LocalAddr()),
		Contents:    []byte("after"),
	}})
	require.NoError(t, err)
	got := receive(t, receiver, 1)
	assert.Equal(t, "after", string(got[0].Payload))
}

func TestTryRecvWouldBlock(t *testing.T) {
	receiver := listen(t, "udp4", "127.0.0.1:0")
	n, err := receiver.TryRecv([][]byte{make([]byte, 100)}, make([]transport.RecvMeta, 1))
	assert.Zero(t, n)
	assert.True(t, transport.IsWouldBlock(err), "err: %v", err)
}

func TestSendInvalidTransmit(t *testing.T) {
	sender := listen(t, "udp4", "127.0.0.1:0")
	n, err := sender.Send(context.Background(), []transport.Transmit{{
		Destination: netip.MustParseAddrPort("127.0.0.1:9"),
		Contents:    make([]byte, 10),
		SegmentSize: 20,
	}})
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestListenBufferSizes(t *testing.T) {
	c := listen(t, "udp4", "127.0.0.1:0",
		transport.WithSendBufferSize(1<<16),
		transport.WithReceiveBufferSize(1<<16),
	)
	assert.NotNil(t, c.Capabilities())
}
