// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/lassandro/intcode/pkg/search"
)

func newAmpCmd() *cobra.Command {
	var feedbackvar bool
	var lovar, hivar int64

	cmd := &cobra.Command{
		Use:   "amp FILE",
		Short: "Find the phase settings giving the largest amplifier signal",
		Long: `amp chains one machine per phase setting, each feeding its outputs to the
next, and tries every ordering of the phase range. With --feedback the last
machine also feeds the first until they all halt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0], nil)

			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("lo") && !cmd.Flags().Changed("hi") &&
				feedbackvar {
				lovar, hivar = 5, 9
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, phases, err := search.MaxSignal(
				ctx, program, lovar, hivar, feedbackvar,
			)

			if err != nil {
				return err
			}

			logger.Debug("max signal", "phases", phases)
			fmt.Println(result)

			return nil
		},
	}

	cmd.Flags().BoolVar(
		&feedbackvar, "feedback", false,
		"Feed the last amplifier back into the first (phases 5..9 by default)",
	)
	cmd.Flags().Int64Var(&lovar, "lo", 0, "Lowest phase setting")
	cmd.Flags().Int64Var(&hivar, "hi", 4, "Highest phase setting")

	return cmd
}

func newNounVerbCmd() *cobra.Command {
	var targetvar int64

	cmd := &cobra.Command{
		Use:   "nounverb FILE",
		Short: "Find the noun and verb that leave a target value in cell 0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0], nil)

			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := search.NounVerb(ctx, program, targetvar)

			if err != nil {
				return err
			}

			logger.Debug("found", "noun", result/100, "verb", result%100)
			fmt.Println(result)

			return nil
		},
	}

	cmd.Flags().Int64Var(&targetvar, "target", 19690720, "Value wanted in cell 0")

	return cmd
}
