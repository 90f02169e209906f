package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eh8/acstor/internal/azure"
	"github.com/eh8/acstor/internal/bench"
	"github.com/eh8/acstor/internal/cluster"
	"github.com/eh8/acstor/internal/config"
	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/manifest"
	"github.com/eh8/acstor/internal/metrics"
	"github.com/eh8/acstor/internal/report"
)

type Runner struct {
	Clients     *k8s.Clients
	Config      config.Config
	Logger      *slog.Logger
	MetricsPort int

	// Reconnect rebuilds clients after provisioning switches the active
	// context. Defaults to k8s.NewClients with the run's QPS/burst.
	Reconnect func() (*k8s.Clients, error)

	// Provision creates the AKS cluster when none is found. Defaults to
	// the Azure provisioner.
	Provision func(ctx context.Context, vmSize string) (cluster.Handle, error)

	// Exec runs a command in a pod. Defaults to the API server's exec
	// subresource.
	Exec k8s.Exec
}

func (r *Runner) Run(ctx context.Context, cfg RunConfig) error {
	logger := r.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	plan, err := NewPlanBuilder().Build(cfg)
	if err != nil {
		return err
	}

	ctxRun, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logger.Info("signal received", logging.StringField("signal", sig.String()))
		cancel()
	}()

	clients := r.Clients

	if plan.Mode == ModeCleanup {
		applier := r.newApplier(clients, "")
		if t := r.Config.Timeouts.FinalizerRetry.Std(); t > 0 {
			// Custom resource deletes can stall on finalizers; bound the
			// confirmation wait separately from the happy path.
			applier.DeleteConfirmTimeout = t
		}
		CleanupBench(ctxRun, applier, logger)
		return nil
	}

	logger.Info("run id", logging.StringField("value", plan.RunID))
	logger.Info("mode", logging.StringField("value", string(plan.Mode)))
	logger.Info("backend", logging.StringField("value", string(plan.Backend)))
	logger.Info("metrics server start", logging.IntField("port", r.MetricsPort))
	metrics.StartMetricsServer(r.MetricsPort)

	metrics.RunInfo.WithLabelValues(string(plan.Mode), string(plan.Backend), plan.RunID).Set(1)
	defer metrics.RunInfo.WithLabelValues(string(plan.Mode), string(plan.Backend), plan.RunID).Set(0)

	provisioned := false
	resourceGroup := ""
	located := false
	if !cfg.ForceNewCluster && clients != nil {
		locator := &cluster.Locator{Client: clients.Kube, Logger: logger}
		located = locator.Locate(ctxRun)
	}
	if !located {
		provision := r.Provision
		if provision == nil {
			provision = func(ctx context.Context, vmSize string) (cluster.Handle, error) {
				return r.provision(ctx, vmSize, logger)
			}
		}
		handle, err := provision(ctxRun, plan.Backend.VMSize(r.Config))
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("provision").Inc()
			return err
		}
		provisioned = true
		resourceGroup = handle.ResourceGroup

		reconnect := r.Reconnect
		if reconnect == nil {
			qps, burst := clientRateLimits(cfg)
			reconnect = func() (*k8s.Clients, error) { return k8s.NewClients(qps, burst) }
		}
		clients, err = reconnect()
		if err != nil {
			return fmt.Errorf("failed to connect to new cluster: %v", err)
		}
	}

	applier := r.newApplier(clients, plan.OutputDir)
	if err := r.applyManifests(ctxRun, plan, applier); err != nil {
		metrics.ErrorsTotal.WithLabelValues("manifest").Inc()
		return err
	}

	sink := newLazyArtifact(plan.OutputDir, plan.Tool, plan.Label, plan.StartTime)
	defer sink.Close()

	benchCtx := ctxRun
	if t := r.Config.Timeouts.BenchmarkRun.Std(); t > 0 {
		var cancelBench context.CancelFunc
		benchCtx, cancelBench = context.WithTimeout(ctxRun, t)
		defer cancelBench()
	}

	var fioSummary *report.FioSummary
	var pgSummaries []report.PgbenchSummary
	execer := r.Exec
	if execer == nil {
		execer = k8s.NewPodExec(clients.Kube, clients.RestConfig)
	}

	switch plan.Mode {
	case ModeIOPS, ModeBandwidth:
		runner := &bench.FioRunner{Exec: execer, Logger: logger}
		summary, err := runner.Run(benchCtx, bench.FioJob{
			Label:     plan.Label,
			Namespace: plan.Namespace,
			PodName:   plan.PodName,
			Container: "fio",
			BlockSize: plan.BlockSize,
			ReadWrite: plan.ReadWrite,
			Duration:  plan.Duration,
			IODepth:   plan.IODepth,
			NumJobs:   plan.NumJobs,
			FileSize:  plan.FileSize,
		}, sink)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("fio").Inc()
			return err
		}
		metrics.FioIOPS.WithLabelValues(plan.Label, "read").Set(summary.ReadIOPS)
		metrics.FioIOPS.WithLabelValues(plan.Label, "write").Set(summary.WriteIOPS)
		fioSummary = &summary
	case ModePgsql, ModePgsqlAzureDisk:
		runner := &bench.PgbenchRunner{Kube: clients.Kube, Exec: execer, Logger: logger}
		pgSummaries, err = runner.Run(benchCtx, bench.PgbenchJob{
			ClusterName:    plan.DBClusterName,
			Namespace:      plan.Namespace,
			Scale:          plan.PgScale,
			Clients:        plan.PgClients,
			Threads:        plan.PgThreads,
			WarmupSeconds:  plan.WarmupSeconds,
			SubTestSeconds: plan.SubTestSeconds,
		}, sink)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("pgbench").Inc()
			return err
		}
		for _, summary := range pgSummaries {
			metrics.PgbenchTPS.WithLabelValues(summary.SubTest).Set(summary.TPS)
			metrics.PgbenchLatency.WithLabelValues(summary.SubTest).Set(summary.LatencyMS)
		}
	}

	runConfig := report.RunConfig{
		RunID:      plan.RunID,
		Mode:       string(plan.Mode),
		Backend:    string(plan.Backend),
		StartTime:  plan.StartTime,
		Context:    cfg.Context,
		Server:     cfg.Server,
		BlockSize:  plan.BlockSize,
		DurationS:  int(plan.Duration.Seconds()),
		IODepth:    plan.IODepth,
		NumJobs:    plan.NumJobs,
		PgClients:  plan.PgClients,
		PgThreads:  plan.PgThreads,
		PgScale:    plan.PgScale,
		StorageSC:  plan.StorageClass,
		Provision:  provisioned,
		ResourceRG: resourceGroup,
	}
	output := struct {
		Config  report.RunConfig        `json:"config"`
		Fio     *report.FioSummary      `json:"fio,omitempty"`
		Pgbench []report.PgbenchSummary `json:"pgbench,omitempty"`
	}{
		Config:  runConfig,
		Fio:     fioSummary,
		Pgbench: pgSummaries,
	}
	jsonPath := filepath.Join(plan.OutputDir, fmt.Sprintf("%s-%s-%s.json", plan.Tool, plan.Label, plan.RunID))
	if err := report.WriteJSON(jsonPath, output); err != nil {
		return err
	}

	metrics.TotalDuration.WithLabelValues(string(plan.Mode), string(plan.Backend), plan.RunID).Set(
		time.Since(plan.StartTime).Seconds())
	logger.Info("benchmark completed")
	if path := sink.Path(); path != "" {
		logger.Info("results log", logging.StringField("path", path))
	}
	logger.Info("results json", logging.StringField("path", jsonPath))
	return nil
}

// clientRateLimits picks the QPS/burst for clients rebuilt after
// provisioning: the run's flag values, or the flag defaults when unset.
func clientRateLimits(cfg RunConfig) (float32, int) {
	qps, burst := cfg.ClientQPS, cfg.ClientBurst
	if qps <= 0 {
		qps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return qps, burst
}

func (r *Runner) provision(ctx context.Context, vmSize string, logger *slog.Logger) (cluster.Handle, error) {
	if err := r.Config.ValidateAzure(); err != nil {
		return cluster.Handle{}, err
	}
	azClient, err := azure.New(r.Config.SubscriptionID, r.Config.Region)
	if err != nil {
		return cluster.Handle{}, fmt.Errorf("failed to build azure client: %v", err)
	}
	provisioner := &cluster.Provisioner{
		Azure:  azClient,
		Config: r.Config,
		Logger: logger,
	}
	return provisioner.Provision(ctx, vmSize)
}

func (r *Runner) applyManifests(ctx context.Context, plan Plan, applier *manifest.Applier) error {
	if err := applier.EnsureNamespace(ctx, plan.Namespace); err != nil {
		return err
	}

	switch {
	case plan.UsesStoragePool:
		metrics.RecordPhase("storagepool:apply")
		pool := manifest.StoragePool(plan.Backend, plan.PoolCapacity)
		if err := applier.ApplyUnstructured(ctx, manifest.StoragePoolGVR, pool, "Ready"); err != nil {
			return err
		}
	case plan.StorageClass != managedCSIClass:
		metrics.RecordPhase("storageclass:apply")
		if err := applier.ApplyStorageClass(ctx, manifest.PremiumV2StorageClass(plan.StorageClass)); err != nil {
			return err
		}
	}

	switch plan.Mode {
	case ModeIOPS, ModeBandwidth:
		metrics.RecordPhase("pvc:apply")
		if err := applier.EnsurePodAbsent(ctx, plan.Namespace, plan.PodName); err != nil {
			return err
		}
		if err := applier.ApplyPVC(ctx, manifest.PVC(plan.PVCName, plan.Namespace, plan.StorageClass, plan.VolumeSize)); err != nil {
			return err
		}
		metrics.RecordPhase("pod:apply")
		if err := applier.ApplyPod(ctx, manifest.FioPod(plan.PodName, plan.Namespace, plan.PVCName)); err != nil {
			return err
		}
		// The class binds on first consumer, so an unbound claim here means
		// provisioning failed and fio would hit an empty mount.
		return k8s.WaitForPVCBound(ctx, applier.Kube, plan.Namespace, plan.PVCName, 30*time.Second)
	case ModePgsql, ModePgsqlAzureDisk:
		metrics.RecordPhase("database:apply")
		dbApplier := *applier
		if t := r.Config.Timeouts.DatabaseReady.Std(); t > 0 {
			dbApplier.ReadyTimeout = t
		}
		dbCluster := manifest.PostgresCluster(plan.DBClusterName, plan.Namespace, plan.StorageClass, plan.PgInstances, plan.PgStorageSize)
		return dbApplier.ApplyUnstructured(ctx, manifest.PostgresClusterGVR, dbCluster, "Ready")
	}
	return nil
}

func (r *Runner) newApplier(clients *k8s.Clients, artifactDir string) *manifest.Applier {
	return &manifest.Applier{
		Kube:                 clients.Kube,
		Dynamic:              clients.Dynamic,
		Logger:               r.Logger,
		ArtifactDir:          artifactDir,
		DeleteConfirmTimeout: r.Config.Timeouts.DeleteConfirm.Std(),
		ReadyTimeout:         r.Config.Timeouts.PodReady.Std(),
	}
}
