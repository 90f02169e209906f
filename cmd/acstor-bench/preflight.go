package main

import (
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/preflight"

	"github.com/spf13/cobra"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Verify prerequisites for a benchmark run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preflight.Check(cmd.Context()); err != nil {
			return err
		}
		logger := logging.GetLogger()
		if !preflight.HasKubeconfig() {
			logger.Info("no kubeconfig contexts found; a run will provision a new cluster")
		}
		logger.Info("preflight ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}
