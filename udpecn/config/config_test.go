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

package config

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/ecnudp/pkg/log"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg Config
	cfg.Sample(&sample, nil, nil)

	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	require.NoError(t, err)
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, idSample, cfg.General.ID)
	assert.Equal(t, log.DefaultConsoleLevel, cfg.Logging.Console.Level)
	assert.Empty(t, cfg.Metrics.Prometheus)
	assert.Equal(t, Socket{}, cfg.Socket)
	assert.Equal(t, netip.MustParseAddrPort(DefaultListen), cfg.Echo.Listen)
	assert.Equal(t, DefaultPeers, cfg.Echo.Peers)
	assert.Equal(t, DefaultMTU, cfg.Echo.MTU)
}

func TestEchoDefaults(t *testing.T) {
	var cfg Echo
	assert.Error(t, cfg.Validate())
	cfg.InitDefaults()
	assert.NoError(t, cfg.Validate())

	cfg = Echo{Listen: netip.MustParseAddrPort("127.0.0.1:1"), Peers: 3, MTU: 9000}
	cfg.InitDefaults()
	assert.Equal(t, Echo{Listen: netip.MustParseAddrPort("127.0.0.1:1"), Peers: 3, MTU: 9000}, cfg)
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		Modify    func(cfg *Config)
		AssertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			Modify:    func(cfg *Config) {},
			AssertErr: assert.NoError,
		},
		"missing id": {
			Modify:    func(cfg *Config) { cfg.General.ID = "" },
			AssertErr: assert.Error,
		},
		"negative send buffer": {
			Modify:    func(cfg *Config) { cfg.Socket.SendBufferSize = -1 },
			AssertErr: assert.Error,
		},
		"negative receive buffer": {
			Modify:    func(cfg *Config) { cfg.Socket.ReceiveBufferSize = -1 },
			AssertErr: assert.Error,
		},
		"mtu too large": {
			Modify:    func(cfg *Config) { cfg.Echo.MTU = 70000 },
			AssertErr: assert.Error,
		},
		"bad log level": {
			Modify:    func(cfg *Config) { cfg.Logging.Console.Level = "loud" },
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := Config{}
			cfg.General.ID = "test"
			cfg.InitDefaults()
			tc.Modify(&cfg)
			tc.AssertErr(t, cfg.Validate())
		})
	}
}

func TestSocketOptions(t *testing.T) {
	assert.Len(t, (&Socket{}).Options(), 2)
	assert.Len(t, (&Socket{DisableGSO: true, DisableGRO: true}).Options(), 4)
}
