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
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/metrics"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
	"github.com/scionproto/ecnudp/udpecn/config"
	"github.com/scionproto/ecnudp/udpecn/echo"
)

func newServe(pather CommandPather) *cobra.Command {
	var flags struct {
		stats bool
	}
	var cmd = &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the ECN echo server",
		Example: fmt.Sprintf(`  %[1]s serve --config udpecn.toml
  %[1]s serve --echo.listen 127.0.0.1:30707 --log.console.level debug`, pather.CommandPath()),
		Long: `'serve' runs the ECN echo server.

The server reflects every datagram to its sender, carrying the same ECN
codepoint it arrived with. Clients use the echoes to find out whether the
path bleaches or re-marks the ECN bits.

The configuration is read from the file given with --config. Flags and
UDPECN_* environment variables override values of the file.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return runServe(cmd.Context(), cfg, flags.stats)
		},
	}
	registerConfigFlags(cmd.Flags())
	cmd.Flags().BoolVar(&flags.stats, "stats", false,
		"Print the per-peer ECN statistics on shutdown")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, printStats bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := metrics.ApplyOptions(metrics.WithRegistry(reg)).Auto()

	logEntriesTotal := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lib_log_emitted_entries_total",
			Help: "Total number of log entries emitted.",
		},
		[]string{"level"},
	)
	opt := log.WithEntriesCounter(log.EntriesCounter{
		Debug: logEntriesTotal.With(prometheus.Labels{"level": "debug"}),
		Info:  logEntriesTotal.With(prometheus.Labels{"level": "info"}),
		Error: logEntriesTotal.With(prometheus.Labels{"level": "error"}),
	})
	if err := log.Setup(cfg.Logging, opt); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()
	defer log.HandlePanic()

	ctx, logger := log.WithLabels(ctx, "id", cfg.General.ID)
	opts := append(cfg.Socket.Options(),
		transport.WithLogger(logger),
		transport.WithMetrics(transport.NewMetrics(factory)),
	)
	conn, err := transport.Listen(ctx, "udp", cfg.Echo.Listen.String(), opts...)
	if err != nil {
		return serrors.Wrap("opening socket", err, "listen", cfg.Echo.Listen)
	}
	defer conn.Close()

	stats, err := echo.NewPeerStats(cfg.Echo.Peers)
	if err != nil {
		return err
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "udpecn",
		Name:      "tracked_peers",
		Help:      "Number of peers with tracked ECN statistics.",
	}, func() float64 { return float64(stats.Len()) })

	caps := conn.Capabilities()
	server := echo.NewServer(conn, caps.RecvBufferSize(cfg.Echo.MTU), stats, logger)
	logger.Info("Echo server started", "addr", conn.LocalAddr(), "caps", caps)

	g, errCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer log.HandlePanic()
		return server.Serve(errCtx)
	})
	g.Go(func() error {
		defer log.HandlePanic()
		return cfg.Metrics.ServePrometheus(errCtx, reg)
	})
	err = g.Wait()
	logger.Info("Echo server stopped")
	if printStats {
		stats.WriteTable(os.Stdout)
	}
	return err
}
