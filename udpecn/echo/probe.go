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

package echo

import (
	"context"
	"encoding/binary"
	"errors"
	"net/netip"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
)

const (
	// MinProbeSize fits the sequence number.
	MinProbeSize = 8
	// MaxProbeSize is the largest UDP payload over IPv4.
	MaxProbeSize = 65507
)

// Probe sends marked datagrams to an echo server and reports the codepoints
// of the echoes.
type Probe struct {
	// Destination is the echo server.
	Destination netip.AddrPort
	// Mark is set on every datagram.
	Mark ecn.Mark
	// Count is the number of datagrams.
	Count int
	// Size is the payload size of each datagram.
	Size int
	// Segmented sends all datagrams as a single segmented transmit.
	Segmented bool
}

// Result summarizes a probe run.
type Result struct {
	// Sent is the number of datagrams handed to the kernel.
	Sent int
	// Received is the number of distinct datagrams echoed back.
	Received int
	// Marks counts the echoed datagrams per ECN mark.
	Marks map[ecn.Mark]int
}

func (p *Probe) Validate() error {
	if !p.Destination.IsValid() {
		return serrors.New("destination must be set")
	}
	if p.Count <= 0 {
		return serrors.New("count must be positive", "count", p.Count)
	}
	if p.Size < MinProbeSize || p.Size > MaxProbeSize {
		return serrors.New("invalid size", "size", p.Size,
			"min", MinProbeSize, "max", MaxProbeSize)
	}
	if p.Segmented && p.Count*p.Size > MaxProbeSize {
		return serrors.New("segmented probe exceeds the maximum payload",
			"count", p.Count, "size", p.Size)
	}
	return nil
}

// Run sends the probe on conn and collects echoes until all arrived or ctx
// expires. Echoes missing at the deadline count as lost, not as an error.
func (p *Probe) Run(ctx context.Context, conn transport.AsyncSocket) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	dst := netip.AddrPortFrom(p.Destination.Addr().Unmap(), p.Destination.Port())
	res := Result{Marks: make(map[ecn.Mark]int)}
	for out := p.transmits(dst); len(out) > 0; {
		n, err := conn.Send(ctx, out)
		if err != nil {
			return res, serrors.Wrap("sending probes", err, "destination", dst)
		}
		for i := range out[:n] {
			res.Sent += out[i].Segments()
		}
		out = out[n:]
	}

	seen := make([]bool, p.Count)
	bufs := make([][]byte, transport.BatchSize)
	for i := range bufs {
		bufs[i] = make([]byte, 1<<16)
	}
	meta := make([]transport.RecvMeta, transport.BatchSize)
	logger := log.FromCtx(ctx)
	for res.Received < p.Count {
		n, err := conn.Recv(ctx, bufs, meta)
		if errors.Is(err, context.DeadlineExceeded) {
			return res, nil
		}
		if err != nil {
			return res, serrors.Wrap("receiving echoes", err)
		}
		for i := range n {
			if meta[i].Addr != dst {
				logger.Debug("Ignoring datagram from unexpected peer", "peer", meta[i].Addr)
				continue
			}
			for _, d := range meta[i].Datagrams(bufs[i]) {
				if len(d) < MinProbeSize {
					continue
				}
				seq := binary.BigEndian.Uint64(d)
				if seq >= uint64(p.Count) || seen[seq] {
					continue
				}
				seen[seq] = true
				res.Received++
				res.Marks[meta[i].ECN]++
			}
		}
	}
	return res, nil
}

func (p *Probe) transmits(dst netip.AddrPort) []transport.Transmit {
	payload := make([]byte, p.Count*p.Size)
	for seq := range p.Count {
		d := payload[seq*p.Size : (seq+1)*p.Size]
		binary.BigEndian.PutUint64(d, uint64(seq))
		for j := MinProbeSize; j < len(d); j++ {
			d[j] = byte(j)
		}
	}
	if p.Segmented {
		t := transport.Transmit{Destination: dst, ECN: p.Mark, Contents: payload}
		if p.Count > 1 {
			t.SegmentSize = p.Size
		}
		return []transport.Transmit{t}
	}
	transmits := make([]transport.Transmit, p.Count)
	for seq := range transmits {
		transmits[seq] = transport.Transmit{
			Destination: dst,
			ECN:         p.Mark,
			Contents:    payload[seq*p.Size : (seq+1)*p.Size],
		}
	}
	return transmits
}
