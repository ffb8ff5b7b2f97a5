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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
	"github.com/scionproto/ecnudp/udpecn/echo"
)

var allMarks = []ecn.Mark{{}, ecn.Some(ecn.ECT0), ecn.Some(ecn.ECT1), ecn.Some(ecn.CE)}

// sendResult is the outcome of a probe run as presented to the user.
type sendResult struct {
	Destination string         `json:"destination"`
	Sent        ecn.Mark       `json:"-"`
	SentMark    string         `json:"sent_mark"`
	Datagrams   int            `json:"datagrams"`
	Echoed      int            `json:"echoed"`
	Marks       map[string]int `json:"marks"`
	raw         echo.Result
}

func newSendResult(p *echo.Probe, res echo.Result) sendResult {
	r := sendResult{
		Destination: p.Destination.String(),
		Sent:        p.Mark,
		SentMark:    p.Mark.String(),
		Datagrams:   res.Sent,
		Echoed:      res.Received,
		Marks:       make(map[string]int, len(res.Marks)),
		raw:         res,
	}
	for m, n := range res.Marks {
		r.Marks[m.String()] = n
	}
	return r
}

// Human writes the result in human readable form to w.
func (r sendResult) Human(w io.Writer, colored bool) {
	noColor := color.New()
	noColor.DisableColor()
	keys, good, bad := noColor, noColor, noColor
	if colored {
		keys = color.New(color.FgHiCyan)
		good = color.New(color.FgGreen)
		bad = color.New(color.FgRed)
	}
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Destination"), r.Destination)
	fmt.Fprintf(w, "%s: %d datagrams marked %s\n", keys.Sprint("Sent"), r.Datagrams, r.SentMark)
	received := good
	if r.Echoed < r.Datagrams {
		received = bad
	}
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Echoed"),
		received.Sprintf("%d/%d", r.Echoed, r.Datagrams))
	for _, m := range allMarks {
		n := r.raw.Marks[m]
		if n == 0 {
			continue
		}
		c := good
		if m != r.Sent && m != ecn.Some(ecn.CE) {
			c = bad
		}
		fmt.Fprintf(w, "  %-8s %s\n", m.String(), c.Sprint(n))
	}
}

// JSON writes the result as a json object to w.
func (r sendResult) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func newSend(pather CommandPather) *cobra.Command {
	mark := markFlag(ecn.Some(ecn.ECT0))
	var flags struct {
		local     string
		count     int
		size      int
		segmented bool
		timeout   time.Duration
		json      bool
		noColor   bool
	}
	var cmd = &cobra.Command{
		Use:   "send <echo-server> [flags]",
		Short: "Probe an echo server with ECN marked datagrams",
		Example: fmt.Sprintf(`  %[1]s send 192.0.2.1:30707
  %[1]s send [2001:db8::1]:30707 --ecn ce --count 32 --segmented`, pather.CommandPath()),
		Long: `'send' sends ECN marked datagrams to an echo server.

The echoes tell which codepoint arrived at the server. A mark that differs
from the sent one, other than CE, indicates that the path re-marks ECN bits.
Not-ECT echoes of marked datagrams indicate bleaching.

The command exits with an error if no echo arrives before the timeout.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, err := netip.ParseAddrPort(args[0])
			if err != nil {
				return serrors.Wrap("parsing echo server address", err)
			}
			p := &echo.Probe{
				Destination: dst,
				Mark:        ecn.Mark(mark),
				Count:       flags.count,
				Size:        flags.size,
				Segmented:   flags.segmented,
			}
			if err := p.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			local := flags.local
			if local == "" {
				local = "0.0.0.0:0"
				if dst.Addr().Unmap().Is6() {
					local = "[::]:0"
				}
			}
			conn, err := transport.Listen(cmd.Context(), "udp", local,
				transport.WithLogger(log.Discard()))
			if err != nil {
				return serrors.Wrap("opening socket", err, "local", local)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			res, err := p.Run(ctx, conn)
			if err != nil {
				return err
			}
			r := newSendResult(p, res)
			if flags.json {
				if err := r.JSON(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				r.Human(cmd.OutOrStdout(), !flags.noColor)
			}
			if res.Received == 0 {
				return serrors.New("no echo received", "destination", dst)
			}
			return nil
		},
	}
	cmd.Flags().Var(&mark, "ecn", "ECN mark of the datagrams (not-ect|ect0|ect1|ce)")
	cmd.Flags().StringVar(&flags.local, "local", "", "Local address to send from")
	cmd.Flags().IntVarP(&flags.count, "count", "c", 8, "Number of datagrams")
	cmd.Flags().IntVarP(&flags.size, "size", "s", 64, "Payload size of each datagram")
	cmd.Flags().BoolVar(&flags.segmented, "segmented", false,
		"Send all datagrams in a single segmented transmit")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 2*time.Second,
		"Time to wait for echoes")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Write the output as machine readable json")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	return cmd
}
