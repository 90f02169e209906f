package run

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eh8/acstor/internal/cluster"
	"github.com/eh8/acstor/internal/config"
	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/manifest"
	"github.com/eh8/acstor/internal/metrics"

	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
)

const fioSampleOutput = `benchtest: (g=0): rw=randread, bs=(R) 4096B-4096B, ioengine=libaio, iodepth=32
  read: IOPS=98.1k, BW=383MiB/s (402MB/s)(22.5GiB/60001msec)
    slat (nsec): min=1800, max=401000, avg=2512.33, stdev=101.20
    clat (usec): min=80, max=12000, avg=640.15, stdev=50.81
`

func newRunnerClients(objects ...runtime.Object) *k8s.Clients {
	scheme := runtime.NewScheme()
	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			manifest.StoragePoolGVR:     "StoragePoolList",
			manifest.PostgresClusterGVR: "ClusterList",
		})
	return &k8s.Clients{
		Kube:    fake.NewSimpleClientset(objects...),
		Dynamic: dynamicClient,
	}
}

// containerStorageObjects seed a fake cluster the locator accepts: an Azure
// provider node and a class served by the container storage CSI driver.
func containerStorageObjects() []runtime.Object {
	return []runtime.Object{
		&storagev1.StorageClass{
			ObjectMeta:  metav1.ObjectMeta{Name: "acstor-azuredisk"},
			Provisioner: cluster.ContainerStorageProvisioner,
		},
		&corev1.Node{
			ObjectMeta: metav1.ObjectMeta{Name: "aks-nodepool1-0"},
			Spec:       corev1.NodeSpec{ProviderID: "azure:///subscriptions/s/resourceGroups/rg/virtualMachines/0"},
		},
	}
}

func boundBenchPVC() *corev1.PersistentVolumeClaim {
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: fioPVCName, Namespace: BenchNamespace},
		Status:     corev1.PersistentVolumeClaimStatus{Phase: corev1.ClaimBound},
	}
}

func runnerConfig() config.Config {
	return config.Config{
		DefaultVMSize: "Standard_D8s_v5",
		Timeouts: config.Timeouts{
			PodReady:      config.Duration(10 * time.Millisecond),
			DeleteConfirm: config.Duration(10 * time.Millisecond),
			BenchmarkRun:  config.Duration(time.Minute),
		},
	}
}

func TestRunProvisionsAndReconnectsWhenNoClusterFound(t *testing.T) {
	outDir := t.TempDir()
	var steps []string

	runner := &Runner{
		Clients: newRunnerClients(),
		Config:  runnerConfig(),
		Provision: func(ctx context.Context, vmSize string) (cluster.Handle, error) {
			steps = append(steps, "provision")
			if vmSize != "Standard_D8s_v5" {
				t.Errorf("provision got VM size %q, want Standard_D8s_v5", vmSize)
			}
			return cluster.Handle{ResourceGroup: "acstor-bench-rg"}, nil
		},
		Reconnect: func() (*k8s.Clients, error) {
			steps = append(steps, "reconnect")
			return newRunnerClients(boundBenchPVC()), nil
		},
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			steps = append(steps, "exec")
			if namespace != BenchNamespace || pod != fioPodName {
				t.Errorf("exec targeted %s/%s, want %s/%s", namespace, pod, BenchNamespace, fioPodName)
			}
			if len(command) == 0 || command[0] != "fio" {
				t.Errorf("exec ran %v, want a fio invocation", command)
			}
			return fioSampleOutput, nil
		},
	}

	err := runner.Run(context.Background(), RunConfig{
		Mode:      ModeIOPS,
		Backend:   manifest.BackendPremiumSSDv2,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"provision", "reconnect", "exec"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}

	reports, err := filepath.Glob(filepath.Join(outDir, "acstor-fio-iops-*.json"))
	if err != nil || len(reports) != 1 {
		t.Fatalf("expected one JSON report in %s, got %v (err %v)", outDir, reports, err)
	}

	// The duration gauge records wall time of this run, not the 60s fio
	// runtime parameter.
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "acstorbench_total_duration_seconds" {
			continue
		}
		for _, m := range family.GetMetric() {
			if v := m.GetGauge().GetValue(); v < 0 || v > 30 {
				t.Fatalf("total duration gauge = %v, want elapsed wall seconds", v)
			}
		}
	}
}

func TestRunReusesLocatedCluster(t *testing.T) {
	objects := append(containerStorageObjects(), boundBenchPVC())
	runner := &Runner{
		Clients: newRunnerClients(objects...),
		Config:  runnerConfig(),
		Provision: func(ctx context.Context, vmSize string) (cluster.Handle, error) {
			t.Error("provision called although a usable cluster was located")
			return cluster.Handle{}, nil
		},
		Reconnect: func() (*k8s.Clients, error) {
			t.Error("reconnect called although clients never changed")
			return nil, nil
		},
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			return fioSampleOutput, nil
		},
	}

	err := runner.Run(context.Background(), RunConfig{
		Mode:      ModeIOPS,
		Backend:   manifest.BackendPremiumSSDv2,
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestRunForceNewClusterBypassesLocator(t *testing.T) {
	provisioned := false
	runner := &Runner{
		Clients: newRunnerClients(containerStorageObjects()...),
		Config:  runnerConfig(),
		Provision: func(ctx context.Context, vmSize string) (cluster.Handle, error) {
			provisioned = true
			return cluster.Handle{ResourceGroup: "acstor-bench-rg"}, nil
		},
		Reconnect: func() (*k8s.Clients, error) {
			return newRunnerClients(boundBenchPVC()), nil
		},
		Exec: func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
			return fioSampleOutput, nil
		},
	}

	err := runner.Run(context.Background(), RunConfig{
		Mode:            ModeIOPS,
		Backend:         manifest.BackendPremiumSSDv2,
		ForceNewCluster: true,
		OutputDir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !provisioned {
		t.Fatalf("force-new-cluster run never provisioned")
	}
}

func TestClientRateLimitsCarryFlagValues(t *testing.T) {
	qps, burst := clientRateLimits(RunConfig{ClientQPS: 200, ClientBurst: 400})
	if qps != 200 || burst != 400 {
		t.Fatalf("clientRateLimits = %v/%v, want 200/400", qps, burst)
	}
	qps, burst = clientRateLimits(RunConfig{})
	if qps != 50 || burst != 100 {
		t.Fatalf("clientRateLimits defaults = %v/%v, want 50/100", qps, burst)
	}
}

func TestRunReturnsProvisionError(t *testing.T) {
	runner := &Runner{
		Clients: newRunnerClients(),
		Config:  runnerConfig(),
		Provision: func(ctx context.Context, vmSize string) (cluster.Handle, error) {
			return cluster.Handle{}, errors.New("quota exceeded for Standard_L8s_v3")
		},
	}

	err := runner.Run(context.Background(), RunConfig{
		Mode:      ModeIOPS,
		Backend:   manifest.BackendPremiumSSDv2,
		OutputDir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("Run error = %v, want the provision failure", err)
	}
}
