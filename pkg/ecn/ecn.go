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

// Package ecn defines the Explicit Congestion Notification codepoints carried
// in the two low-order bits of the IPv4 TOS and IPv6 Traffic Class fields
// (RFC 3168).
//
// The Not-ECT pattern (00) is not a codepoint. It is represented by an empty
// Mark.
package ecn

import (
	"fmt"
	"strings"

	"github.com/scionproto/ecnudp/pkg/private/serrors"
)

// Mask selects the ECN bits of a TOS or Traffic Class byte.
const Mask = 0b11

// Codepoint is an ECN codepoint.
type Codepoint uint8

const (
	// ECT0 is ECN Capable Transport (0).
	ECT0 Codepoint = 0b10
	// ECT1 is ECN Capable Transport (1).
	ECT1 Codepoint = 0b01
	// CE is Congestion Experienced.
	CE Codepoint = 0b11
)

func (c Codepoint) String() string {
	switch c {
	case ECT0:
		return "ECT(0)"
	case ECT1:
		return "ECT(1)"
	case CE:
		return "CE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
	}
}

// Mark is an optional ECN codepoint. The zero value carries no codepoint and
// stands for Not-ECT.
type Mark struct {
	cp Codepoint
	ok bool
}

// Some returns a Mark carrying c.
func Some(c Codepoint) Mark {
	return FromBits(uint8(c))
}

// FromBits extracts the mark from a TOS or Traffic Class value. Only the low
// two bits are considered. The pattern 00 yields the empty Mark.
func FromBits(b uint8) Mark {
	b &= Mask
	if b == 0 {
		return Mark{}
	}
	return Mark{cp: Codepoint(b), ok: true}
}

// Get returns the codepoint and whether the mark carries one.
func (m Mark) Get() (Codepoint, bool) {
	return m.cp, m.ok
}

// IsSet reports whether the mark carries a codepoint.
func (m Mark) IsSet() bool {
	return m.ok
}

// Bits returns the wire value of the mark. The empty Mark encodes as 00.
func (m Mark) Bits() uint8 {
	if !m.ok {
		return 0
	}
	return uint8(m.cp)
}

func (m Mark) String() string {
	if !m.ok {
		return "Not-ECT"
	}
	return m.cp.String()
}

// ParseMark parses the textual form of a mark. It accepts the output of
// Mark.String as well as the short forms not-ect, ect0, ect1 and ce, ignoring
// case.
func ParseMark(s string) (Mark, error) {
	switch strings.ToLower(s) {
	case "not-ect", "none", "":
		return Mark{}, nil
	case "ect0", "ect(0)":
		return Some(ECT0), nil
	case "ect1", "ect(1)":
		return Some(ECT1), nil
	case "ce":
		return Some(CE), nil
	default:
		return Mark{}, serrors.New("unknown ECN mark", "mark", s)
	}
}
