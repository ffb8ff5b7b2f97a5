// Copyright 2018 ETH Zurich, Anapaya Systems
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

// Package env contains config blocks and initialization code shared by the
// commands of this module. If something is specific to one command, it
// should go into that command's code and not here.
package env

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/private/config"
)

const (
	// ShutdownGraceInterval is the time the metrics server is given to
	// finish in-flight requests on shutdown.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which the http handler gives up on a
	// request and returns an error instead.
	HandlerTimeout = time.Minute
)

var _ config.Config = (*General)(nil)

// General contains the settings common to all commands.
type General struct {
	config.NoDefaulter
	// ID identifies the instance in logs.
	ID string `toml:"id,omitempty"`
}

func (cfg *General) Validate() error {
	if cfg.ID == "" {
		return serrors.New("no instance id specified")
	}
	return nil
}

func (cfg *General) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	id := ctx[config.ID]
	if id == "" {
		id = "udpecn-1"
	}
	config.WriteString(dst, "\n# The ID of the instance. (required)\nid = \""+id+"\"\n")
}

func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

// Metrics contains the settings of the metrics endpoint.
type Metrics struct {
	config.NoDefaulter
	// Prometheus contains the address to export prometheus metrics on. If
	// not set, metrics are not exported.
	Prometheus string `toml:"prometheus,omitempty"`
}

// Validate checks that the prometheus address, if set, has a host and a
// port part.
func (cfg *Metrics) Validate() error {
	if cfg.Prometheus == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Prometheus); err != nil {
		return serrors.Wrap("invalid prometheus address", err, "prometheus", cfg.Prometheus)
	}
	return nil
}

func (cfg *Metrics) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, `
# The address to export prometheus metrics on (host:port, ip:port or :port).
# The socket counters (ecnudp_*) and the log entry counters are found under
# /metrics. If not set, metrics are not exported. (default "")
prometheus = ""
`)
}

func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// ServePrometheus exports the metrics in gatherer on /metrics until ctx is
// done. It returns immediately if no address is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context, gatherer prometheus.Gatherer) error {
	if cfg.Prometheus == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{Timeout: HandlerTimeout},
	))
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus)

	server := &http.Server{Addr: cfg.Prometheus, Handler: mux}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGraceInterval)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err)
	}
	return nil
}
