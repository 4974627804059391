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
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/blinklabs-io/raffle/internal/simulate"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func simulateCommand() *cobra.Command {
	var players, rounds int
	var seed uint64
	var fee string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play raffle rounds in process with a fake clock",
		Run: func(cmd *cobra.Command, _ []string) {
			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
			if globalFlags.debug {
				logger = slog.New(
					slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
				)
			}
			entranceFee, err := uint256.FromDecimal(fee)
			if err != nil {
				slog.Error(fmt.Sprintf("invalid entrance fee %q: %s", fee, err))
				os.Exit(1)
			}
			res, err := simulate.Run(cmd.Context(), simulate.Config{
				Players:     players,
				Rounds:      rounds,
				Seed:        seed,
				EntranceFee: entranceFee,
				Logger:      logger,
			})
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROUND\tENTRIES\tWINNER\tPRIZE")
			for _, r := range res.Rounds {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.Round, r.Entries, r.Winner.Hex(), r.Prize.Dec())
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PLAYER\tBALANCE\tNET")
			for _, p := range res.Players {
				bal := res.Balances[p]
				net := "+" + new(uint256.Int).Sub(bal, res.Funded).Dec()
				if bal.Lt(res.Funded) {
					net = "-" + new(uint256.Int).Sub(res.Funded, bal).Dec()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Hex(), bal.Dec(), net)
			}
			w.Flush()
		},
	}
	cmd.Flags().IntVar(&players, "players", 5, "number of player accounts")
	cmd.Flags().IntVar(&rounds, "rounds", 10, "number of rounds to play")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for entries and random words")
	cmd.Flags().StringVar(&fee, "fee", simulate.DefaultEntranceFee.Dec(), "entrance fee in wei")
	return cmd
}
