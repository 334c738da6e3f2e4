package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opmstudio/engine/pkg/command"
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/logging"
	"github.com/opmstudio/engine/pkg/opl"
)

var oplCmd = &cobra.Command{
	Use:   "opl",
	Short: "Convert between diagrams and Object-Process Language text",
}

// oplGenCmd renders a diagram file as OPL sentences on stdout.
var oplGenCmd = &cobra.Command{
	Use:   "gen <diagram>",
	Short: "Render a diagram as OPL sentences",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, reg, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		st, err := loadDiagram(args[0], logger, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opl gen failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(opl.Generate(st))
	},
}

// oplParseCmd builds a diagram from OPL sentences.
var oplParseCmd = &cobra.Command{
	Use:   "parse <opl-text-file> <out-diagram>",
	Short: "Build a diagram from OPL sentences",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, reg, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		text, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "opl parse failed: %v\n", err)
			os.Exit(1)
		}

		st := graph.NewStore()
		eng := command.NewEngine()
		eng.SetMetrics(reg)
		ignored, err := opl.NewParser(st, eng).Build(string(text))
		if err != nil {
			fmt.Fprintf(os.Stderr, "opl parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, line := range ignored {
			logger.Warn("line ignored", logging.String("line", line))
		}
		if err := saveDiagram(st, args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "opl parse failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d nodes, %d links, %d ignored lines\n", args[1], st.NodeCount(), st.LinkCount(), len(ignored))
	},
}

func init() {
	oplCmd.AddCommand(oplGenCmd)
	oplCmd.AddCommand(oplParseCmd)
	rootCmd.AddCommand(oplCmd)
}
