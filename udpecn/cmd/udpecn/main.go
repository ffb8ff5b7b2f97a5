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

// udpecn is an ECN echo server and probing tool built on the batched UDP
// transport.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scionproto/ecnudp/private/app/command"
	"github.com/scionproto/ecnudp/udpecn/config"
)

// CommandPather returns the path to a command.
type CommandPather interface {
	CommandPath() string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executable := filepath.Base(os.Args[0])
	cmd := &cobra.Command{
		Use:   executable,
		Short: "ECN echo server and probing tool",
		Args:  cobra.NoArgs,
		// Errors are printed in main. Commands silence the usage message once
		// their arguments are known to be well-formed.
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServe(cmd),
		newCapabilities(cmd),
		newSend(cmd),
		command.NewSample(cmd, &config.Config{}),
		command.NewGendocs(cmd),
	)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
