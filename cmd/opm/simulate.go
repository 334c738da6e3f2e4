package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opmstudio/engine/pkg/petri"
	"github.com/opmstudio/engine/pkg/sim"
)

// simulateCmd derives the Petri net from a diagram and runs it to a dead
// marking with the deterministic lowest-id policy.
var simulateCmd = &cobra.Command{
	Use:   "simulate <diagram>",
	Short: "Run the diagram's Petri net to a dead marking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, reg, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		maxSteps := cfg.Simulation.MaxSteps
		if cmd.Flags().Changed("max-steps") {
			maxSteps, _ = cmd.Flags().GetInt("max-steps")
		}

		st, err := loadDiagram(args[0], logger, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simulate failed: %v\n", err)
			os.Exit(1)
		}
		net, err := petri.Build(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simulate failed: %v\n", err)
			os.Exit(1)
		}

		s := sim.New(net)
		s.SetMetrics(reg)
		fired, err := s.RunToFixpoint(maxSteps)
		if err != nil && !errors.Is(err, sim.ErrStepLimitExceeded) {
			fmt.Fprintf(os.Stderr, "simulate failed: %v\n", err)
			os.Exit(1)
		}

		for _, tid := range fired {
			fmt.Printf("fired %s (%s)\n", tid, net.Transitions[tid].Label)
		}
		if errors.Is(err, sim.ErrStepLimitExceeded) {
			fmt.Printf("stopped after %d steps without reaching a dead marking\n", maxSteps)
		}
		printMarking(net, s.Marking())
	},
}

func printMarking(net *petri.Net, m petri.Marking) {
	ids := make([]string, 0, len(m))
	for pid := range m {
		ids = append(ids, pid)
	}
	sort.Strings(ids)
	for _, pid := range ids {
		fmt.Printf("%s (%s) = %d\n", pid, net.Places[pid].Label, m[pid])
	}
}

func init() {
	simulateCmd.Flags().Int("max-steps", 0, "Step budget before giving up (overrides configuration)")
	rootCmd.AddCommand(simulateCmd)
}
