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

// Package echo implements an ECN reflecting echo server and the matching
// probe client.
package echo

import (
	"context"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
)

// Server sends every received datagram back to its sender with the ECN
// codepoint it arrived with.
type Server struct {
	conn   transport.AsyncSocket
	stats  *PeerStats
	logger log.Logger

	bufs [][]byte
	meta []transport.RecvMeta
	out  []transport.Transmit
}

// NewServer creates a server on conn. Each of the transport.BatchSize
// receive buffers has bufSize bytes. stats may be nil.
func NewServer(conn transport.AsyncSocket, bufSize int, stats *PeerStats,
	logger log.Logger) *Server {

	if logger == nil {
		logger = log.Root()
	}
	s := &Server{
		conn:   conn,
		stats:  stats,
		logger: logger,
		bufs:   make([][]byte, transport.BatchSize),
		meta:   make([]transport.RecvMeta, transport.BatchSize),
		out:    make([]transport.Transmit, 0, transport.BatchSize),
	}
	for i := range s.bufs {
		s.bufs[i] = make([]byte, bufSize)
	}
	return s
}

// Serve echoes datagrams until ctx is done or receiving fails. It returns nil
// if ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Debug("Echo server started", "local", s.conn.LocalAddr())
	for {
		n, err := s.conn.Recv(ctx, s.bufs, s.meta)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return serrors.Wrap("receiving datagrams", err)
		}
		s.out = s.out[:0]
		for i := range n {
			m := &s.meta[i]
			s.stats.Observe(m.Addr, m.ECN, m.NumDatagrams())
			t := transport.Transmit{
				Destination: m.Addr,
				ECN:         m.ECN,
				Contents:    s.bufs[i][:m.Len],
				SrcIP:       m.DstIP,
			}
			if m.NumDatagrams() > 1 {
				t.SegmentSize = m.Stride
			}
			s.out = append(s.out, t)
		}
		if err := s.reply(ctx); err != nil {
			return nil
		}
	}
}

// reply sends s.out. A transmit that fails is dropped so one unreachable
// peer cannot stall the others. It only fails if ctx is done.
func (s *Server) reply(ctx context.Context) error {
	out := s.out
	for len(out) > 0 {
		n, err := s.conn.Send(ctx, out)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug("Dropping echo", "destination", out[0].Destination, "err", err)
			out = out[1:]
			continue
		}
		out = out[n:]
	}
	return nil
}
