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
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
)

// capsReport describes the offloads of the host and of a configured socket.
type capsReport struct {
	Platform  string    `json:"platform"`
	BatchSize int       `json:"batch_size"`
	Host      capsEntry `json:"host"`
	Socket    capsEntry `json:"socket"`
	LocalAddr string    `json:"local_addr"`
}

type capsEntry struct {
	GSOSegments int `json:"gso_segments"`
	GROSegments int `json:"gro_segments"`
}

func entryOf(c *transport.Capabilities) capsEntry {
	return capsEntry{GSOSegments: c.MaxGSOSegments(), GROSegments: c.GROSegments()}
}

// Human writes the report as a table to w.
func (r capsReport) Human(w io.Writer, colored bool) {
	noColor := color.New()
	noColor.DisableColor()
	keys, on, off := noColor, noColor, noColor
	if colored {
		keys = color.New(color.FgHiCyan)
		on = color.New(color.FgGreen)
		off = color.New(color.FgRed)
	}
	segments := func(n int) string {
		if n > 1 {
			return on.Sprint(strconv.Itoa(n))
		}
		return off.Sprint("off")
	}

	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Platform"), r.Platform)
	fmt.Fprintf(w, "%s: %d\n", keys.Sprint("Batch size"), r.BatchSize)
	fmt.Fprintf(w, "%s: %s\n\n", keys.Sprint("Socket"), r.LocalAddr)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"OFFLOAD", "HOST", "SOCKET"})
	table.Append([]string{"GSO", segments(r.Host.GSOSegments), segments(r.Socket.GSOSegments)})
	table.Append([]string{"GRO", segments(r.Host.GROSegments), segments(r.Socket.GROSegments)})
	table.Render()
}

// JSON writes the report as a json object to w.
func (r capsReport) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func newCapabilities(pather CommandPather) *cobra.Command {
	var flags struct {
		local   string
		json    bool
		noColor bool
		noGSO   bool
		noGRO   bool
	}
	var cmd = &cobra.Command{
		Use:     "capabilities [flags]",
		Aliases: []string{"caps"},
		Short:   "Show the UDP offloads available on this host",
		Example: fmt.Sprintf(`  %[1]s capabilities
  %[1]s capabilities --local 127.0.0.1:0 --json`, pather.CommandPath()),
		Long: `'capabilities' reports the UDP offloads of this host.

The host column shows what the kernel supports. The socket column shows what
a socket bound to --local ends up with after configuration, taking the
--disable flags into account.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			opts := []transport.Option{transport.WithLogger(log.Discard())}
			if flags.noGSO {
				opts = append(opts, transport.WithoutGSO())
			}
			if flags.noGRO {
				opts = append(opts, transport.WithoutGRO())
			}
			conn, err := transport.Listen(cmd.Context(), "udp", flags.local, opts...)
			if err != nil {
				return serrors.Wrap("opening socket", err, "local", flags.local)
			}
			defer conn.Close()

			r := capsReport{
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				BatchSize: transport.BatchSize,
				Host:      entryOf(transport.ProbeCapabilities()),
				Socket:    entryOf(conn.Capabilities()),
				LocalAddr: conn.LocalAddr().String(),
			}
			if flags.json {
				return r.JSON(cmd.OutOrStdout())
			}
			r.Human(cmd.OutOrStdout(), !flags.noColor)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.local, "local", "127.0.0.1:0", "Local address of the probed socket")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Write the output as machine readable json")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&flags.noGSO, "disable-gso", false, "Disable segmentation offload")
	cmd.Flags().BoolVar(&flags.noGRO, "disable-gro", false, "Disable receive offload")
	return cmd
}
