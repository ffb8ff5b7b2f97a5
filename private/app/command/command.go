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

// Package command contains cobra subcommands shared by the binaries of this
// module.
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scionproto/ecnudp/private/config"
)

// Pather returns the path of a command. It is implemented by *cobra.Command
// and allows building example strings before the command is attached.
type Pather interface {
	CommandPath() string
}

// NewSample creates a command that prints a sample of cfg to stdout or to
// the file given as argument.
func NewSample(pather Pather, cfg config.Sampler) *cobra.Command {
	return &cobra.Command{
		Use:   "sample [file]",
		Short: "Display a sample configuration file",
		Example: fmt.Sprintf(`  %[1]s sample
  %[1]s sample udpecn.toml`, pather.CommandPath()),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg.Sample(cmd.OutOrStdout(), nil, nil)
				return nil
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating sample file: %w", err)
			}
			cfg.Sample(f, nil, nil)
			return f.Close()
		},
	}
}
