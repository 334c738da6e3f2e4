package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/opmstudio/engine/pkg/codec"
	"github.com/opmstudio/engine/pkg/config"
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/logging"
	"github.com/opmstudio/engine/pkg/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "opm",
	Short: "opm works with Object-Process Methodology diagrams from the command line",
	Long: `opm imports, exports and converts OPM diagram files, renders them as
Object-Process Language text, and runs the derived Petri net headlessly.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the engine configuration file")
	rootCmd.PersistentFlags().String("metrics-listen", "", "Address for the Prometheus metrics endpoint")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// setup loads configuration and wires logging and metrics for a subcommand.
func setup(cmd *cobra.Command) (config.Config, logging.Logger, *metrics.Registry, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, nil, nil, err
		}
		cfg = loaded
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if listen, _ := cmd.Flags().GetString("metrics-listen"); listen != "" {
		cfg.MetricsListen = listen
	}

	logger := logging.NewDefaultLogger()
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	reg := metrics.NewDefaultRegistry()
	if cfg.MetricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				logger.Error("metrics endpoint failed", logging.Error(err))
			}
		}()
		logger.Info("metrics endpoint started", logging.String("addr", cfg.MetricsListen))
	}
	return cfg, logger, reg, nil
}

// loadDiagram reads a diagram file, transparently unsealing the compressed
// container format, and reports per-record import problems as warnings.
func loadDiagram(path string, logger logging.Logger, reg *metrics.Registry) (*graph.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if document, uerr := codec.Unseal(data); uerr == nil {
		data = document
	}

	c := codec.New()
	c.SetMetrics(reg)
	st, report, err := c.Import(data)
	if err != nil {
		return nil, err
	}
	for _, recErr := range report.Errors {
		logger.Warn("record rejected", logging.String("record", recErr.Error()))
	}
	reg.NodesLive.Set(float64(st.NodeCount()))
	reg.LinksLive.Set(float64(st.LinkCount()))
	return st, nil
}

// saveDiagram writes a diagram, sealing it when the path has the compressed
// extension.
func saveDiagram(st *graph.Store, path string) error {
	data, err := codec.New().Export(st)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".opmd") {
		data = codec.Seal(data)
	}
	return os.WriteFile(path, data, 0o644)
}
