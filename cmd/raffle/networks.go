// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/blinklabs-io/raffle/config/network"
	"github.com/blinklabs-io/raffle/internal/config"
	"github.com/spf13/cobra"
)

func networksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List the known networks and their raffle parameters",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			networks, err := network.LoadWithFallback(cfg.NetworksFile)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHAIN ID\tENTRANCE FEE\tINTERVAL\tCONFIRMATIONS\tCOORDINATOR")
			for _, n := range networks {
				coordinator := "local"
				if addr, ok := n.Coordinator(); ok {
					coordinator = addr.Hex()
				}
				fmt.Fprintf(
					w,
					"%s\t%d\t%s\t%s\t%d\t%s\n",
					n.Name,
					n.ChainID,
					n.EntranceFee,
					n.Interval,
					n.BlockConfirmations,
					coordinator,
				)
			}
			w.Flush()
		},
	}
}
