package main

import (
	"fmt"
	"os"

	"github.com/eh8/acstor/internal/config"
	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/manifest"
	"github.com/eh8/acstor/internal/preflight"
	runsvc "github.com/eh8/acstor/internal/service/run"

	"github.com/spf13/cobra"
)

var (
	modeIOPS           bool
	modeBandwidth      bool
	modePgsql          bool
	modePgsqlAzureDisk bool
	modeCleanup        bool
	forceNewCluster    bool
	backendFlag        string
	outputDir          string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision (or reuse) a cluster and run a benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := runsvc.ModeFromFlags(modeIOPS, modeBandwidth, modePgsql, modePgsqlAzureDisk, modeCleanup)
		if err != nil {
			return err
		}

		if err := preflight.Check(cmd.Context()); err != nil {
			return err
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		var backend manifest.Backend
		if mode != runsvc.ModePgsqlAzureDisk && mode != runsvc.ModeCleanup {
			if backendFlag != "" {
				backend, err = manifest.ParseBackend(backendFlag)
			} else {
				backend, err = runsvc.PromptBackend(os.Stdin, os.Stdout)
			}
			if err != nil {
				return err
			}
		}

		// A missing kubeconfig just means the locator has nothing to find.
		var clients *k8s.Clients
		if preflight.HasKubeconfig() {
			clients, err = k8s.NewClients(clientQPS, clientBurst)
			if err != nil {
				logging.GetLogger().Warn("kubeconfig unusable, provisioning a new cluster", logging.ErrorField(err))
			}
		}

		if mode == runsvc.ModeCleanup && clients == nil {
			return fmt.Errorf("cleanup needs a reachable cluster context")
		}

		runner := &runsvc.Runner{
			Clients:     clients,
			Config:      cfg,
			Logger:      logging.GetLogger(),
			MetricsPort: metricsPort,
		}
		runCfg := runsvc.RunConfig{
			Mode:            mode,
			Backend:         backend,
			ForceNewCluster: forceNewCluster,
			OutputDir:       outputDir,
			ClientQPS:       clientQPS,
			ClientBurst:     clientBurst,
		}
		if clients != nil {
			runCfg.Context = clients.Info.Context
			runCfg.Server = clients.Info.Server
		}
		return runner.Run(cmd.Context(), runCfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&modeIOPS, "iops", false, "Raw I/O benchmark, 4k block size")
	runCmd.Flags().BoolVar(&modeBandwidth, "bandwidth", false, "Raw I/O benchmark, 128k block size")
	runCmd.Flags().BoolVar(&modePgsql, "pgsql", false, "pgbench against a replicated Postgres cluster on container storage")
	runCmd.Flags().BoolVar(&modePgsqlAzureDisk, "pgsql-azure-disk", false, "pgbench against plain Azure Disk (managed-csi)")
	runCmd.Flags().BoolVar(&modeCleanup, "cleanup", false, "Delete benchmark objects from the cluster and exit")
	runCmd.Flags().BoolVar(&forceNewCluster, "force-new-cluster", false, "Provision a new cluster even if a usable one is reachable")
	runCmd.Flags().StringVar(&backendFlag, "backend", "", "Storage backend (ephemeral-nvme, ephemeral-temp-ssd, azure-disk, elastic-san, premium-ssd-v2)")
	runCmd.Flags().StringVar(&outputDir, "out", ".", "Directory for manifests and result artifacts")

	rootCmd.AddCommand(runCmd)
}
