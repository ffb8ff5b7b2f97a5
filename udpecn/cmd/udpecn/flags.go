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
	"net/netip"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scionproto/ecnudp/pkg/ecn"
	"github.com/scionproto/ecnudp/pkg/private/serrors"
	libconfig "github.com/scionproto/ecnudp/private/config"
	"github.com/scionproto/ecnudp/udpecn/config"
)

// Configuration keys. Each key can be set in the config file, with a flag or
// with an environment variable, e.g. UDPECN_LOG_CONSOLE_LEVEL.
const (
	cfgConfigFile        = "config"
	cfgGeneralID         = "general.id"
	cfgLogConsoleLevel   = "log.console.level"
	cfgLogConsoleFormat  = "log.console.format"
	cfgMetricsPrometheus = "metrics.prometheus"
	cfgEchoListen        = "echo.listen"
	cfgSocketDisableGSO  = "socket.disable_gso"
	cfgSocketDisableGRO  = "socket.disable_gro"

	envPrefix = "udpecn"
	defaultID = "udpecn"
)

func registerConfigFlags(flags *pflag.FlagSet) {
	flags.String(cfgConfigFile, "", "Configuration file (TOML)")
	flags.String(cfgGeneralID, "", "Instance identifier used in logs")
	flags.String(cfgLogConsoleLevel, "", "Console logging level (debug|info|error)")
	flags.String(cfgLogConsoleFormat, "", "Console logging format (human|json)")
	flags.String(cfgMetricsPrometheus, "", "Address to export prometheus metrics on")
	flags.String(cfgEchoListen, "", "Address the echo server listens on")
	flags.Bool(cfgSocketDisableGSO, false, "Disable UDP segmentation offload")
	flags.Bool(cfgSocketDisableGRO, false, "Disable UDP receive offload")
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		cfgConfigFile,
		cfgGeneralID,
		cfgLogConsoleLevel,
		cfgLogConsoleFormat,
		cfgMetricsPrometheus,
		cfgEchoListen,
		cfgSocketDisableGSO,
		cfgSocketDisableGRO,
	} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// loadConfig reads the config file, if any, and applies the values set by
// flags or environment on top of it.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var cfg config.Config
	if file := v.GetString(cfgConfigFile); file != "" {
		if err := libconfig.LoadFile(file, &cfg); err != nil {
			return nil, serrors.Wrap("loading config from file", err, "file", file)
		}
	}
	if v.IsSet(cfgGeneralID) {
		cfg.General.ID = v.GetString(cfgGeneralID)
	}
	if cfg.General.ID == "" {
		cfg.General.ID = defaultID
	}
	if v.IsSet(cfgLogConsoleLevel) {
		cfg.Logging.Console.Level = v.GetString(cfgLogConsoleLevel)
	}
	if v.IsSet(cfgLogConsoleFormat) {
		cfg.Logging.Console.Format = v.GetString(cfgLogConsoleFormat)
	}
	if v.IsSet(cfgMetricsPrometheus) {
		cfg.Metrics.Prometheus = v.GetString(cfgMetricsPrometheus)
	}
	if v.IsSet(cfgEchoListen) {
		listen, err := netip.ParseAddrPort(v.GetString(cfgEchoListen))
		if err != nil {
			return nil, serrors.Wrap("parsing listen address", err)
		}
		cfg.Echo.Listen = listen
	}
	if v.IsSet(cfgSocketDisableGSO) {
		cfg.Socket.DisableGSO = v.GetBool(cfgSocketDisableGSO)
	}
	if v.IsSet(cfgSocketDisableGRO) {
		cfg.Socket.DisableGRO = v.GetBool(cfgSocketDisableGRO)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err)
	}
	return &cfg, nil
}

// markFlag is a pflag.Value selecting an ECN mark.
type markFlag ecn.Mark

func (m *markFlag) String() string {
	return ecn.Mark(*m).String()
}

func (m *markFlag) Set(s string) error {
	mark, err := ecn.ParseMark(s)
	if err != nil {
		return err
	}
	*m = markFlag(mark)
	return nil
}

func (m *markFlag) Type() string {
	return "mark"
}
