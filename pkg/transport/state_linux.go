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

package transport

import (
	"errors"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// BatchSize is the maximum number of messages passed to the kernel in one
// system call.
const BatchSize = 32

// Linux doubles the requested socket buffer size to account for bookkeeping
// overhead.
const bufferSizeFactor = 2

type sendScratch struct {
	plan  []message
	hdrs  [BatchSize]mmsghdr
	iovs  [BatchSize * MaxSegments]unix.Iovec
	names [BatchSize]unix.RawSockaddrInet6
	ctrl  [BatchSize * sendCmsgSpace]byte
}

type recvScratch struct {
	hdrs  [BatchSize]mmsghdr
	iovs  [BatchSize]unix.Iovec
	names [BatchSize]unix.RawSockaddrInet6
	ctrl  [BatchSize * recvCmsgSpace]byte
}

var (
	sendPool = sync.Pool{New: func() any { return new(sendScratch) }}
	recvPool = sync.Pool{New: func() any { return new(recvScratch) }}
)

func (s *SocketState) configure(sock SockRef) error {
	dualStack := false
	if s.family == unix.AF_INET6 {
		err := sock.SetsockoptInt(unix.IPPROTO_IPV6, unix.IPV6_RECVTCLASS, 1)
		if err != nil {
			return serrors.Wrap("enabling traffic class reception", err,
				"option", "IPV6_RECVTCLASS")
		}
		s.optional(sock, unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, 1, "IPV6_RECVPKTINFO")
		s.optional(sock, unix.IPPROTO_IPV6, unix.IPV6_MTU_DISCOVER, unix.IPV6_PMTUDISC_PROBE,
			"IPV6_MTU_DISCOVER")
		v6only, err := sock.GetsockoptInt(unix.IPPROTO_IPV6, unix.IPV6_V6ONLY)
		dualStack = err == nil && v6only == 0
	}
	if s.family == unix.AF_INET || dualStack {
		err := sock.SetsockoptInt(unix.IPPROTO_IP, unix.IP_RECVTOS, 1)
		switch {
		case err != nil && !dualStack:
			return serrors.Wrap("enabling TOS reception", err, "option", "IP_RECVTOS")
		case err != nil:
			s.logger.Debug("Optional socket option not supported",
				"option", "IP_RECVTOS", "err", err)
		}
		s.optional(sock, unix.IPPROTO_IP, unix.IP_PKTINFO, 1, "IP_PKTINFO")
		s.optional(sock, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_PROBE,
			"IP_MTU_DISCOVER")
	}
	if s.caps.GROSegments() > 1 {
		if !s.optional(sock, unix.SOL_UDP, unix.UDP_GRO, 1, "UDP_GRO") {
			s.caps.disableGRO()
		}
	}
	return nil
}

func (s *SocketState) send(sock SockRef, caps *Capabilities, transmits []Transmit) (int, error) {
	sc := sendPool.Get().(*sendScratch)
	defer sc.release()

	sc.plan = planMessages(sc.plan[:0], transmits, caps.MaxGSOSegments())
	sent := 0
	for off := 0; off < len(sc.plan); {
		batch := sc.plan[off:min(off+BatchSize, len(sc.plan))]
		n, err := sendmmsg(sock.fd, s.fillSend(sc, transmits, batch))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return s.sendFailed(caps, transmits, &batch[0], sent, err)
		}
		datagrams := 0
		for i := range batch[:n] {
			sent += batch[i].done
			datagrams += batch[i].datagrams(transmits)
		}
		s.metrics.sent(datagrams)
		off += n
	}
	return sent, nil
}

func (s *SocketState) fillSend(sc *sendScratch, transmits []Transmit, batch []message) []mmsghdr {
	iov := 0
	for i := range batch {
		m := &batch[i]
		t := &transmits[m.first]
		start := iov
		m.pieces(transmits, func(b []byte) {
			v := &sc.iovs[iov]
			*v = unix.Iovec{}
			if len(b) > 0 {
				v.Base = &b[0]
				v.SetLen(len(b))
			}
			iov++
		})
		h := &sc.hdrs[i]
		*h = mmsghdr{}
		h.hdr.Name = (*byte)(unsafe.Pointer(&sc.names[i]))
		h.hdr.Namelen = encodeSockaddr(&sc.names[i], s.family, t.Destination)
		h.hdr.Iov = &sc.iovs[start]
		h.hdr.SetIovlen(iov - start)
		slot := sc.ctrl[i*sendCmsgSpace : i*sendCmsgSpace : (i+1)*sendCmsgSpace]
		if ctrl := encodeCmsgs(slot, t, m.segSize); len(ctrl) > 0 {
			h.hdr.Control = &ctrl[0]
			h.hdr.SetControllen(len(ctrl))
		}
	}
	return sc.hdrs[:len(batch)]
}

// release drops the references to caller buffers and returns sc to the
// pool.
func (sc *sendScratch) release() {
	clear(sc.iovs[:])
	clear(sc.hdrs[:])
	clear(sc.plan)
	sendPool.Put(sc)
}

func (s *SocketState) recv(sock SockRef, bufs [][]byte, meta []RecvMeta) (int, error) {
	sc := recvPool.Get().(*recvScratch)
	defer sc.release()

	for i, b := range bufs {
		v := &sc.iovs[i]
		*v = unix.Iovec{}
		if len(b) > 0 {
			v.Base = &b[0]
			v.SetLen(len(b))
		}
		h := &sc.hdrs[i]
		*h = mmsghdr{}
		h.hdr.Name = (*byte)(unsafe.Pointer(&sc.names[i]))
		h.hdr.Namelen = unix.SizeofSockaddrInet6
		h.hdr.Iov = v
		h.hdr.SetIovlen(1)
		h.hdr.Control = &sc.ctrl[i*recvCmsgSpace]
		h.hdr.SetControllen(recvCmsgSpace)
	}
	var n int
	var err error
	for {
		n, err = recvmmsg(sock.fd, sc.hdrs[:len(bufs)])
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		return 0, err
	}
	datagrams := 0
	for i := range n {
		h := &sc.hdrs[i]
		m := RecvMeta{
			Addr: decodeSockaddr(&sc.names[i]),
			Len:  int(h.len),
		}
		ctrl := sc.ctrl[i*recvCmsgSpace:]
		decodeCmsgs(ctrl[:min(int(h.hdr.Controllen), recvCmsgSpace)], &m)
		if m.Stride <= 0 || m.Stride > m.Len {
			m.Stride = m.Len
		}
		meta[i] = m
		datagrams += m.NumDatagrams()
	}
	s.metrics.received(datagrams)
	return n, nil
}

func (sc *recvScratch) release() {
	clear(sc.iovs[:])
	clear(sc.hdrs[:])
	recvPool.Put(sc)
}
