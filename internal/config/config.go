package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "30s" / "5m" style values in YAML, which time.Duration
// itself does not.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %v", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

type Timeouts struct {
	PodReady       Duration `yaml:"podReady"`
	DeleteConfirm  Duration `yaml:"deleteConfirm"`
	ClusterCreate  Duration `yaml:"clusterCreate"`
	DatabaseReady  Duration `yaml:"databaseReady"`
	BenchmarkRun   Duration `yaml:"benchmarkRun"`
	ContextProbe   Duration `yaml:"contextProbe"`
	ProbeCacheTTL  Duration `yaml:"probeCacheTtl"`
	FinalizerRetry Duration `yaml:"finalizerRetry"`
}

type Config struct {
	SubscriptionID string `yaml:"subscriptionId"`
	Region         string `yaml:"region"`
	ClusterPrefix  string `yaml:"clusterPrefix"`
	NodeCount      int32  `yaml:"nodeCount"`

	// DefaultVMSize is used for backends without a VM family constraint.
	DefaultVMSize string `yaml:"defaultVmSize"`
	// NVMeVMSize is required for the ephemeral NVMe backend.
	NVMeVMSize string `yaml:"nvmeVmSize"`

	Timeouts Timeouts `yaml:"timeouts"`
}

const defaultPath = "./acstor-bench.yml"

func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("ACSTOR_BENCH_CONFIG")
	}
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %v", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus env overrides are enough for most runs.
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %v", path, err)
	}

	if sub := os.Getenv("AZURE_SUBSCRIPTION_ID"); sub != "" {
		cfg.SubscriptionID = sub
	}
	if region := os.Getenv("ACSTOR_BENCH_REGION"); region != "" {
		cfg.Region = region
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// ValidateAzure is called before the first Azure management-plane call.
// Read-only cluster work does not need a subscription.
func (c Config) ValidateAzure() error {
	if c.SubscriptionID == "" {
		return fmt.Errorf("subscription ID is required: set AZURE_SUBSCRIPTION_ID or subscriptionId in the config file")
	}
	return nil
}

func defaults() Config {
	return Config{
		Region:        "eastus2",
		ClusterPrefix: "acstor-bench",
		NodeCount:     3,
		DefaultVMSize: "Standard_D4s_v3",
		NVMeVMSize:    "Standard_L8s_v3",
		Timeouts: Timeouts{
			PodReady:       Duration(5 * time.Minute),
			DeleteConfirm:  Duration(2 * time.Minute),
			ClusterCreate:  Duration(10 * time.Minute),
			DatabaseReady:  Duration(10 * time.Minute),
			BenchmarkRun:   Duration(10 * time.Minute),
			ContextProbe:   Duration(5 * time.Second),
			ProbeCacheTTL:  Duration(5 * time.Minute),
			FinalizerRetry: Duration(2 * time.Minute),
		},
	}
}

func applyDefaults(cfg *Config) {
	base := defaults()
	if cfg.Region == "" {
		cfg.Region = base.Region
	}
	if cfg.ClusterPrefix == "" {
		cfg.ClusterPrefix = base.ClusterPrefix
	}
	if cfg.NodeCount <= 0 {
		cfg.NodeCount = base.NodeCount
	}
	if cfg.DefaultVMSize == "" {
		cfg.DefaultVMSize = base.DefaultVMSize
	}
	if cfg.NVMeVMSize == "" {
		cfg.NVMeVMSize = base.NVMeVMSize
	}
	if cfg.Timeouts.PodReady <= 0 {
		cfg.Timeouts.PodReady = base.Timeouts.PodReady
	}
	if cfg.Timeouts.DeleteConfirm <= 0 {
		cfg.Timeouts.DeleteConfirm = base.Timeouts.DeleteConfirm
	}
	if cfg.Timeouts.ClusterCreate <= 0 {
		cfg.Timeouts.ClusterCreate = base.Timeouts.ClusterCreate
	}
	if cfg.Timeouts.DatabaseReady <= 0 {
		cfg.Timeouts.DatabaseReady = base.Timeouts.DatabaseReady
	}
	if cfg.Timeouts.BenchmarkRun <= 0 {
		cfg.Timeouts.BenchmarkRun = base.Timeouts.BenchmarkRun
	}
	if cfg.Timeouts.ContextProbe <= 0 {
		cfg.Timeouts.ContextProbe = base.Timeouts.ContextProbe
	}
	if cfg.Timeouts.ProbeCacheTTL <= 0 {
		cfg.Timeouts.ProbeCacheTTL = base.Timeouts.ProbeCacheTTL
	}
	if cfg.Timeouts.FinalizerRetry <= 0 {
		cfg.Timeouts.FinalizerRetry = base.Timeouts.FinalizerRetry
	}
}
