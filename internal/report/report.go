package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type RunConfig struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Backend    string    `json:"backend"`
	StartTime  time.Time `json:"start_time"`
	Context    string    `json:"context"`
	Server     string    `json:"server"`
	BlockSize  string    `json:"block_size,omitempty"`
	DurationS  int       `json:"duration_seconds,omitempty"`
	IODepth    int       `json:"io_depth,omitempty"`
	NumJobs    int       `json:"num_jobs,omitempty"`
	PgClients  int       `json:"pg_clients,omitempty"`
	PgThreads  int       `json:"pg_threads,omitempty"`
	PgScale    int       `json:"pg_scale,omitempty"`
	StorageSC  string    `json:"storage_class"`
	Provision  bool      `json:"provisioned_new_cluster"`
	ResourceRG string    `json:"resource_group,omitempty"`
}

// FioSummary holds the lines extracted from a single fio invocation, plus
// the parsed IOPS figures for metrics.
type FioSummary struct {
	Label        string   `json:"label"`
	ReadIOPS     float64  `json:"read_iops,omitempty"`
	WriteIOPS    float64  `json:"write_iops,omitempty"`
	IOPSLines    []string `json:"iops_lines"`
	LatencyLines []string `json:"latency_lines"`
}

// PgbenchSummary holds the figures extracted from one pgbench sub-test.
type PgbenchSummary struct {
	SubTest   string   `json:"sub_test"`
	TPS       float64  `json:"tps"`
	LatencyMS float64  `json:"latency_ms"`
	RawLines  []string `json:"raw_lines"`
}

func WriteJSON(path string, payload interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %v", err)
	}
	return os.WriteFile(path, data, 0o644)
}
