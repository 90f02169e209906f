package bench

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/report"
)

// FioJob describes one raw-I/O benchmark invocation. Immutable for the run.
type FioJob struct {
	Label     string
	Namespace string
	PodName   string
	Container string

	BlockSize string
	ReadWrite string
	Duration  time.Duration
	IODepth   int
	NumJobs   int
	FileSize  string
}

func (j FioJob) Command() []string {
	return []string{
		"fio",
		"--name=benchtest",
		"--filename=/volume/benchtest",
		fmt.Sprintf("--size=%s", j.FileSize),
		fmt.Sprintf("--rw=%s", j.ReadWrite),
		fmt.Sprintf("--bs=%s", j.BlockSize),
		fmt.Sprintf("--iodepth=%d", j.IODepth),
		fmt.Sprintf("--numjobs=%d", j.NumJobs),
		"--direct=1",
		"--ioengine=libaio",
		"--time_based",
		fmt.Sprintf("--runtime=%d", int(j.Duration.Seconds())),
		"--group_reporting",
	}
}

type FioRunner struct {
	Exec   k8s.Exec
	Logger *slog.Logger
}

// Run executes fio in the benchmark pod, extracts the summary lines and
// appends them to the sink. A failed or silent invocation returns an error
// and writes nothing.
func (r *FioRunner) Run(ctx context.Context, job FioJob, sink ResultSink) (report.FioSummary, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	logger.Info("running fio",
		logging.StringField("pod", job.PodName),
		logging.StringField("bs", job.BlockSize),
		logging.StringField("rw", job.ReadWrite),
		logging.StringField("runtime", job.Duration.String()),
	)

	output, err := r.Exec(ctx, job.Namespace, job.PodName, job.Container, job.Command())
	if err != nil {
		return report.FioSummary{}, fmt.Errorf("fio invocation failed: %v", err)
	}
	if strings.TrimSpace(output) == "" {
		return report.FioSummary{}, fmt.Errorf("fio produced no output")
	}

	summary, err := ExtractFioSummary(job.Label, output)
	if err != nil {
		return report.FioSummary{}, err
	}

	lines := append(append([]string{}, summary.IOPSLines...), summary.LatencyLines...)
	if err := sink.Append(job.Label, lines); err != nil {
		return report.FioSummary{}, err
	}

	for _, line := range summary.IOPSLines {
		logger.Info("fio result", logging.StringField("line", line))
	}
	return summary, nil
}
