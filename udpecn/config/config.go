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

// Package config contains the configuration of the udpecn echo server.
package config

import (
	"io"
	"net/netip"

	"github.com/scionproto/ecnudp/pkg/log"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	"github.com/scionproto/ecnudp/pkg/transport"
	"github.com/scionproto/ecnudp/private/config"
	"github.com/scionproto/ecnudp/private/env"
)

const (
	idSample = "udpecn-1"

	// DefaultListen is the default address of the echo server.
	DefaultListen = "[::]:30707"
	// DefaultPeers is the default number of peers with tracked statistics.
	DefaultPeers = 1024
	// DefaultMTU is the default size of a single receive buffer.
	DefaultMTU = 1500
)

var _ config.Config = (*Config)(nil)

type Config struct {
	General env.General `toml:"general,omitempty"`
	Logging log.Config  `toml:"log,omitempty"`
	Metrics env.Metrics `toml:"metrics,omitempty"`
	Socket  Socket      `toml:"socket,omitempty"`
	Echo    Echo        `toml:"echo,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Socket,
		&cfg.Echo,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Socket,
		&cfg.Echo,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Socket,
		&cfg.Echo,
	)
}

func (cfg *Config) ConfigName() string {
	return "udpecn_config"
}

var _ config.Config = (*Socket)(nil)

// Socket contains the settings of the UDP socket.
type Socket struct {
	config.NoDefaulter
	// SendBufferSize is the requested SO_SNDBUF size. Zero keeps the system
	// default.
	SendBufferSize int `toml:"send_buffer_size,omitempty"`
	// ReceiveBufferSize is the requested SO_RCVBUF size. Zero keeps the
	// system default.
	ReceiveBufferSize int `toml:"receive_buffer_size,omitempty"`
	// DisableGSO turns segmentation offload off.
	DisableGSO bool `toml:"disable_gso,omitempty"`
	// DisableGRO turns receive offload off.
	DisableGRO bool `toml:"disable_gro,omitempty"`
}

func (cfg *Socket) Validate() error {
	if cfg.SendBufferSize < 0 {
		return serrors.New("send buffer size must not be negative",
			"send_buffer_size", cfg.SendBufferSize)
	}
	if cfg.ReceiveBufferSize < 0 {
		return serrors.New("receive buffer size must not be negative",
			"receive_buffer_size", cfg.ReceiveBufferSize)
	}
	return nil
}

// Options returns the transport options matching the socket settings.
func (cfg *Socket) Options() []transport.Option {
	opts := []transport.Option{
		transport.WithSendBufferSize(cfg.SendBufferSize),
		transport.WithReceiveBufferSize(cfg.ReceiveBufferSize),
	}
	if cfg.DisableGSO {
		opts = append(opts, transport.WithoutGSO())
	}
	if cfg.DisableGRO {
		opts = append(opts, transport.WithoutGRO())
	}
	return opts
}

func (cfg *Socket) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, socketSample)
}

func (cfg *Socket) ConfigName() string {
	return "socket"
}

var _ config.Config = (*Echo)(nil)

// Echo contains the settings of the echo server.
type Echo struct {
	// Listen is the address the server binds to.
	Listen netip.AddrPort `toml:"listen,omitempty"`
	// Peers is the number of peers whose ECN statistics are kept.
	Peers int `toml:"peers,omitempty"`
	// MTU is the size of a single receive buffer. With receive offload the
	// buffers are enlarged accordingly.
	MTU int `toml:"mtu,omitempty"`
}

func (cfg *Echo) InitDefaults() {
	if !cfg.Listen.IsValid() {
		cfg.Listen = netip.MustParseAddrPort(DefaultListen)
	}
	if cfg.Peers == 0 {
		cfg.Peers = DefaultPeers
	}
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
}

func (cfg *Echo) Validate() error {
	if !cfg.Listen.IsValid() {
		return serrors.New("listen address must be set")
	}
	if cfg.Peers <= 0 {
		return serrors.New("peers must be positive", "peers", cfg.Peers)
	}
	if cfg.MTU <= 0 || cfg.MTU > 65535 {
		return serrors.New("invalid mtu", "mtu", cfg.MTU)
	}
	return nil
}

func (cfg *Echo) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, echoSample)
}

func (cfg *Echo) ConfigName() string {
	return "echo"
}
