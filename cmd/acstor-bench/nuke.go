package main

import (
	"fmt"

	"github.com/eh8/acstor/internal/azure"
	"github.com/eh8/acstor/internal/config"
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/nuke"
	"github.com/eh8/acstor/internal/preflight"

	"github.com/spf13/cobra"
)

var (
	nukeDelete  bool
	nukeInspect bool
)

var nukeCmd = &cobra.Command{
	Use:   "nuke (contexts|resources)",
	Short: "Sweep stale kubeconfig contexts or leftover benchmark resource groups",
	Long: `Sweeps stale kubeconfig contexts or benchmark resource groups.

Preview mode (the default) only reports what a destructive run would touch.
Pass --delete to actually remove the matched items.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger()
		opts := nuke.Options{Delete: nukeDelete, Inspect: nukeInspect}

		if nukeDelete {
			logger.Warn("DESTRUCTIVE MODE: matched items will be deleted")
		} else {
			logger.Info("preview mode: nothing will be deleted (pass --delete to act)")
		}

		switch args[0] {
		case "contexts":
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			svc := &nuke.Service{
				Contexts:     nuke.KubeconfigContexts{},
				Logger:       logger,
				ProbeTimeout: cfg.Timeouts.ContextProbe.Std(),
				CacheTTL:     cfg.Timeouts.ProbeCacheTTL.Std(),
			}
			report, err := svc.SweepContexts(opts)
			if err != nil {
				return err
			}
			logger.Info("context sweep result",
				logging.IntField("active", len(report.Active)),
				logging.IntField("stale", len(report.Stale)),
				logging.IntField("deleted", len(report.Deleted)),
				logging.IntField("failed", len(report.Failed)),
			)
			return nil
		case "resources":
			if err := preflight.Check(cmd.Context()); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateAzure(); err != nil {
				return err
			}
			azClient, err := azure.New(cfg.SubscriptionID, cfg.Region)
			if err != nil {
				return err
			}
			svc := &nuke.Service{
				Resources:  azClient,
				Logger:     logger,
				NamePrefix: cfg.ClusterPrefix + "-",
			}
			report, err := svc.SweepResources(cmd.Context(), opts)
			if err != nil {
				return err
			}
			logger.Info("resource sweep result",
				logging.IntField("matched", len(report.Matched)),
				logging.IntField("initiated", report.Initiated),
				logging.IntField("failed", len(report.Failed)),
			)
			return nil
		default:
			return fmt.Errorf("unknown nuke mode %q: expected contexts or resources", args[0])
		}
	},
}

func init() {
	nukeCmd.Flags().BoolVar(&nukeDelete, "delete", false, "Perform the destructive action instead of previewing")
	nukeCmd.Flags().BoolVar(&nukeInspect, "inspect", false, "Report nested resource counts per matched group")
	rootCmd.AddCommand(nukeCmd)
}
