package bench

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/report"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// PgbenchJob describes a database benchmark against a CloudNativePG cluster.
type PgbenchJob struct {
	ClusterName string
	Namespace   string
	Database    string

	Scale          int
	Clients        int
	Threads        int
	WarmupSeconds  int
	SubTestSeconds int
}

type SubTest struct {
	Name string
	Args []string
}

// SubTests covers the three timed workloads: mixed read/write (default
// tpcb-like), read-only and write-only.
func (j PgbenchJob) SubTests() []SubTest {
	return []SubTest{
		{Name: "mixed read/write", Args: nil},
		{Name: "read-only", Args: []string{"-S"}},
		{Name: "write-only", Args: []string{"-N"}},
	}
}

type PgbenchRunner struct {
	Kube   kubernetes.Interface
	Exec   k8s.Exec
	Logger *slog.Logger

	// ReadyAttempts x ReadyInterval bounds the wait for the primary replica.
	ReadyAttempts int
	ReadyInterval time.Duration
}

func (r *PgbenchRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.GetLogger()
}

// WaitForPrimary polls until the cluster's primary instance pod reports
// ready. Returns the pod name pgbench will be exec'd in.
func (r *PgbenchRunner) WaitForPrimary(ctx context.Context, namespace, clusterName string) (string, error) {
	attempts := r.ReadyAttempts
	if attempts <= 0 {
		attempts = 60
	}
	interval := r.ReadyInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	selector := fmt.Sprintf("cnpg.io/cluster=%s,cnpg.io/instanceRole=primary", clusterName)
	for i := 0; i < attempts; i++ {
		pods, err := r.Kube.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err == nil {
			for _, pod := range pods.Items {
				if pod.Status.Phase == corev1.PodRunning && podReady(&pod) {
					r.logger().Info("database primary ready", logging.StringField("pod", pod.Name))
					return pod.Name, nil
				}
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
	return "", fmt.Errorf("primary for cluster %s/%s not ready after %d attempts", namespace, clusterName, attempts)
}

// Run initializes the dataset, performs a discarded warm-up, then executes
// the three timed sub-tests, appending each extracted result to the sink as
// it completes. A sub-test failure stops the run; its result is never
// recorded.
func (r *PgbenchRunner) Run(ctx context.Context, job PgbenchJob, sink ResultSink) ([]report.PgbenchSummary, error) {
	primary, err := r.WaitForPrimary(ctx, job.Namespace, job.ClusterName)
	if err != nil {
		return nil, err
	}

	db := job.Database
	if db == "" {
		db = "app"
	}

	r.logger().Info("initializing pgbench dataset", logging.IntField("scale", job.Scale))
	initCmd := []string{"pgbench", "-i", "-s", strconv.Itoa(job.Scale), db}
	if _, err := r.Exec(ctx, job.Namespace, primary, "postgres", initCmd); err != nil {
		return nil, fmt.Errorf("pgbench init failed: %v", err)
	}

	r.logger().Info("pgbench warm-up (discarded)")
	warmup := r.timedCommand(job, nil, job.WarmupSeconds, db)
	if _, err := r.Exec(ctx, job.Namespace, primary, "postgres", warmup); err != nil {
		return nil, fmt.Errorf("pgbench warm-up failed: %v", err)
	}

	var summaries []report.PgbenchSummary
	for _, subTest := range job.SubTests() {
		r.logger().Info("pgbench sub-test", logging.StringField("name", subTest.Name))
		cmd := r.timedCommand(job, subTest.Args, job.SubTestSeconds, db)
		output, err := r.Exec(ctx, job.Namespace, primary, "postgres", cmd)
		if err != nil {
			return summaries, fmt.Errorf("pgbench %s failed: %v", subTest.Name, err)
		}
		summary, err := ExtractPgbenchSummary(subTest.Name, output)
		if err != nil {
			return summaries, err
		}
		if err := sink.Append("pgbench "+subTest.Name, summary.RawLines); err != nil {
			return summaries, err
		}
		r.logger().Info("pgbench result",
			logging.StringField("sub_test", subTest.Name),
			logging.StringField("tps", fmt.Sprintf("%.1f", summary.TPS)),
			logging.StringField("latency_ms", fmt.Sprintf("%.2f", summary.LatencyMS)),
		)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *PgbenchRunner) timedCommand(job PgbenchJob, extra []string, seconds int, db string) []string {
	cmd := []string{
		"pgbench",
		"-c", strconv.Itoa(job.Clients),
		"-j", strconv.Itoa(job.Threads),
		"-T", strconv.Itoa(seconds),
	}
	cmd = append(cmd, extra...)
	return append(cmd, db)
}

func podReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
