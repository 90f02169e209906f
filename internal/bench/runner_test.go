package bench

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type recordingSink struct {
	sections []string
	lines    [][]string
}

func (s *recordingSink) Append(section string, lines []string) error {
	s.sections = append(s.sections, section)
	s.lines = append(s.lines, lines)
	return nil
}

func TestFioRunnerWritesNothingOnFailure(t *testing.T) {
	sink := &recordingSink{}
	runner := &FioRunner{
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			return "", fmt.Errorf("exit status 1")
		},
	}
	_, err := runner.Run(context.Background(), FioJob{Label: "iops"}, sink)
	if err == nil {
		t.Fatalf("expected error from failed invocation")
	}
	if len(sink.sections) != 0 {
		t.Fatalf("expected no sink writes, got %v", sink.sections)
	}
}

func TestFioRunnerWritesNothingOnEmptyOutput(t *testing.T) {
	sink := &recordingSink{}
	runner := &FioRunner{
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			return "   \n", nil
		},
	}
	if _, err := runner.Run(context.Background(), FioJob{Label: "iops"}, sink); err == nil {
		t.Fatalf("expected error for empty output")
	}
	if len(sink.sections) != 0 {
		t.Fatalf("expected no sink writes, got %v", sink.sections)
	}
}

func TestFioRunnerAppendsSummary(t *testing.T) {
	sink := &recordingSink{}
	runner := &FioRunner{
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			return fioOutput, nil
		},
	}
	summary, err := runner.Run(context.Background(), FioJob{Label: "iops"}, sink)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.sections) != 1 || sink.sections[0] != "iops" {
		t.Fatalf("expected one iops section, got %v", sink.sections)
	}
	if len(sink.lines[0]) != len(summary.IOPSLines)+len(summary.LatencyLines) {
		t.Fatalf("expected all summary lines in sink, got %d", len(sink.lines[0]))
	}
}

func primaryPod(cluster string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cluster + "-1",
			Namespace: "acstor-bench",
			Labels: map[string]string{
				"cnpg.io/cluster":      cluster,
				"cnpg.io/instanceRole": "primary",
			},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func TestPgbenchRunnerRunsSubTests(t *testing.T) {
	client := fake.NewSimpleClientset(primaryPod("pg-bench"))
	var commands [][]string
	runner := &PgbenchRunner{
		Kube: client,
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			commands = append(commands, command)
			return pgbenchOutput, nil
		},
		ReadyAttempts: 2,
		ReadyInterval: time.Millisecond,
	}
	sink := &recordingSink{}
	summaries, err := runner.Run(context.Background(), PgbenchJob{
		ClusterName:    "pg-bench",
		Namespace:      "acstor-bench",
		Scale:          50,
		Clients:        8,
		Threads:        4,
		WarmupSeconds:  30,
		SubTestSeconds: 60,
	}, sink)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 sub-test summaries, got %d", len(summaries))
	}
	// init + warmup + 3 sub-tests
	if len(commands) != 5 {
		t.Fatalf("expected 5 invocations, got %d", len(commands))
	}
	if !strings.Contains(strings.Join(commands[0], " "), "-i") {
		t.Fatalf("expected first invocation to initialize: %v", commands[0])
	}
	if len(sink.sections) != 3 {
		t.Fatalf("expected 3 recorded sections, got %v", sink.sections)
	}
}

func TestPgbenchRunnerStopsOnSubTestFailure(t *testing.T) {
	client := fake.NewSimpleClientset(primaryPod("pg-bench"))
	calls := 0
	runner := &PgbenchRunner{
		Kube: client,
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			calls++
			// init and warmup succeed, first sub-test fails
			if calls <= 2 {
				return pgbenchOutput, nil
			}
			return "", fmt.Errorf("exit status 2")
		},
		ReadyAttempts: 2,
		ReadyInterval: time.Millisecond,
	}
	sink := &recordingSink{}
	summaries, err := runner.Run(context.Background(), PgbenchJob{
		ClusterName:    "pg-bench",
		Namespace:      "acstor-bench",
		Scale:          10,
		Clients:        2,
		Threads:        2,
		WarmupSeconds:  5,
		SubTestSeconds: 5,
	}, sink)
	if err == nil {
		t.Fatalf("expected error from failed sub-test")
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
	if len(sink.sections) != 0 {
		t.Fatalf("expected nothing recorded, got %v", sink.sections)
	}
}

func TestWaitForPrimaryTimesOut(t *testing.T) {
	client := fake.NewSimpleClientset()
	runner := &PgbenchRunner{
		Kube:          client,
		ReadyAttempts: 2,
		ReadyInterval: time.Millisecond,
	}
	if _, err := runner.WaitForPrimary(context.Background(), "acstor-bench", "pg-bench"); err == nil {
		t.Fatalf("expected timeout error")
	}
}
