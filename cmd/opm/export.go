package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opmstudio/engine/pkg/logging"
)

// exportCmd rewrites a diagram file, converting between the plain JSON
// format and the compressed .opmd container by extension.
var exportCmd = &cobra.Command{
	Use:   "export <in> <out>",
	Short: "Re-encode a diagram file (.json or .opmd by extension)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger, reg, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		st, err := loadDiagram(args[0], logger, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
			os.Exit(1)
		}
		if err := saveDiagram(st, args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
			os.Exit(1)
		}
		logger.Info("diagram written", logging.Path(args[1]))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
