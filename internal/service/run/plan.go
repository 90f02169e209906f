package run

import (
	"fmt"
	"time"

	"github.com/eh8/acstor/internal/manifest"
)

type Mode string

const (
	ModeIOPS           Mode = "iops"
	ModeBandwidth      Mode = "bandwidth"
	ModePgsql          Mode = "pgsql"
	ModePgsqlAzureDisk Mode = "pgsql-azure-disk"
	ModeCleanup        Mode = "cleanup"
)

const (
	// BenchNamespace holds every object a run creates on the cluster.
	BenchNamespace = "acstor-bench"

	fioPodName    = "fiopod"
	fioPVCName    = "benchpvc"
	pgClusterName = "pg-bench"

	// managedCSIClass is the built-in AKS Azure Disk storage class used by
	// the pgsql-azure-disk comparison mode.
	managedCSIClass = "managed-csi"
)

type RunConfig struct {
	Mode            Mode
	Backend         manifest.Backend
	ForceNewCluster bool
	OutputDir       string
	Context         string
	Server          string

	// Client rate limits carried to any clients rebuilt mid-run, so a
	// reconnect after provisioning keeps the flag values.
	ClientQPS   float32
	ClientBurst int
}

// Plan fixes every parameter of a run up front. It never changes once built.
type Plan struct {
	RunID   string
	Mode    Mode
	Backend manifest.Backend

	Tool  string
	Label string

	Namespace     string
	PodName       string
	PVCName       string
	DBClusterName string

	// UsesStoragePool is false for modes that go straight to a built-in
	// storage class.
	UsesStoragePool bool
	StorageClass    string
	PoolCapacity    string
	VolumeSize      string

	BlockSize string
	ReadWrite string
	Duration  time.Duration
	IODepth   int
	NumJobs   int
	FileSize  string

	PgInstances    int64
	PgStorageSize  string
	PgScale        int
	PgClients      int
	PgThreads      int
	WarmupSeconds  int
	SubTestSeconds int

	StartTime time.Time
	OutputDir string
}

type PlanBuilder struct {
	Now func() time.Time
}

func NewPlanBuilder() *PlanBuilder {
	return &PlanBuilder{Now: time.Now}
}

func (b *PlanBuilder) Build(cfg RunConfig) (Plan, error) {
	now := b.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	plan := Plan{
		RunID:     start.Format("20060102-150405"),
		Mode:      cfg.Mode,
		Backend:   cfg.Backend,
		Namespace: BenchNamespace,
		StartTime: start,
		OutputDir: cfg.OutputDir,
	}
	if plan.OutputDir == "" {
		plan.OutputDir = "."
	}

	switch cfg.Mode {
	case ModeIOPS:
		plan.Tool = "acstor-fio"
		plan.Label = "iops"
		plan.BlockSize = "4k"
		plan.ReadWrite = "randrw"
		plan.IODepth = 16
		plan.NumJobs = 8
	case ModeBandwidth:
		plan.Tool = "acstor-fio"
		plan.Label = "bandwidth"
		plan.BlockSize = "128k"
		plan.ReadWrite = "read"
		plan.IODepth = 8
		plan.NumJobs = 4
	case ModePgsql, ModePgsqlAzureDisk:
		plan.Tool = "acstor-pgbench"
		plan.Label = string(cfg.Mode)
	case ModeCleanup:
		return plan, nil
	default:
		return Plan{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	if cfg.Mode == ModePgsqlAzureDisk {
		plan.Backend = manifest.BackendAzureDisk
		plan.StorageClass = managedCSIClass
		plan.UsesStoragePool = false
	} else {
		if cfg.Backend == "" {
			return Plan{}, fmt.Errorf("a storage backend is required for mode %s", cfg.Mode)
		}
		plan.StorageClass = cfg.Backend.StorageClassName()
		plan.UsesStoragePool = cfg.Backend.UsesPool()
		if plan.UsesStoragePool {
			plan.PoolCapacity = "1Ti"
		}
	}

	switch cfg.Mode {
	case ModeIOPS, ModeBandwidth:
		plan.PodName = fioPodName
		plan.PVCName = fioPVCName
		plan.Duration = 60 * time.Second
		plan.VolumeSize = "100Gi"
		plan.FileSize = "800m"
	case ModePgsql, ModePgsqlAzureDisk:
		plan.DBClusterName = pgClusterName
		plan.PgInstances = 3
		plan.PgStorageSize = "50Gi"
		plan.PgScale = 50
		plan.PgClients = 8
		plan.PgThreads = 4
		plan.WarmupSeconds = 30
		plan.SubTestSeconds = 60
	}

	return plan, nil
}

// ModeFromFlags maps the mutually exclusive mode flags to a Mode. Exactly one
// must be set.
func ModeFromFlags(iops, bandwidth, pgsql, pgsqlAzureDisk, cleanup bool) (Mode, error) {
	var modes []Mode
	if iops {
		modes = append(modes, ModeIOPS)
	}
	if bandwidth {
		modes = append(modes, ModeBandwidth)
	}
	if pgsql {
		modes = append(modes, ModePgsql)
	}
	if pgsqlAzureDisk {
		modes = append(modes, ModePgsqlAzureDisk)
	}
	if cleanup {
		modes = append(modes, ModeCleanup)
	}
	switch len(modes) {
	case 0:
		return "", fmt.Errorf("select a mode: --iops, --bandwidth, --pgsql, --pgsql-azure-disk or --cleanup")
	case 1:
		return modes[0], nil
	default:
		return "", fmt.Errorf("modes are mutually exclusive, got %d", len(modes))
	}
}
