package main

import (
	"fmt"
	"os"

	"github.com/eh8/acstor/internal/logging"

	"github.com/spf13/cobra"
)

var (
	clientQPS   float32
	clientBurst int
	metricsPort int
	configPath  string
	debugLog    bool
)

var rootCmd = &cobra.Command{
	Use:   "acstor-bench",
	Short: "AKS + Azure Container Storage benchmark tool",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitLogger(debugLog)
	},
}

func init() {
	rootCmd.PersistentFlags().Float32Var(&clientQPS, "client-qps", 50, "Kubernetes client QPS")
	rootCmd.PersistentFlags().IntVar(&clientBurst, "client-burst", 100, "Kubernetes client burst")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 8080, "Port for Prometheus metrics")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ./acstor-bench.yml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
