package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// importCmd validates a diagram file and reports what it contains.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate a diagram file and summarize its contents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, reg, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		st, err := loadDiagram(args[0], logger, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d nodes, %d links\n", args[0], st.NodeCount(), st.LinkCount())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
