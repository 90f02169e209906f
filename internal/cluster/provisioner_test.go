package cluster

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/eh8/acstor/internal/azure"
	"github.com/eh8/acstor/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

type fakeProvisioning struct {
	calls   []string
	failAt  string
	created azure.ClusterSpec
}

func (f *fakeProvisioning) CreateResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error) {
	f.calls = append(f.calls, "group")
	if f.failAt == "group" {
		return nil, fmt.Errorf("boom")
	}
	return &armresources.ResourceGroup{}, nil
}

func (f *fakeProvisioning) CreateCluster(ctx context.Context, spec azure.ClusterSpec) (*armcontainerservice.ManagedCluster, error) {
	f.calls = append(f.calls, "cluster")
	f.created = spec
	if f.failAt == "cluster" {
		return nil, fmt.Errorf("boom")
	}
	return &armcontainerservice.ManagedCluster{}, nil
}

func (f *fakeProvisioning) ClusterCredentials(ctx context.Context, resourceGroup, name string) ([]byte, error) {
	f.calls = append(f.calls, "credentials")
	return []byte("kubeconfig"), nil
}

func (f *fakeProvisioning) InstallContainerStorage(ctx context.Context, resourceGroup, clusterName string) error {
	f.calls = append(f.calls, "extension")
	if f.failAt == "extension" {
		return fmt.Errorf("boom")
	}
	return nil
}

func newTestProvisioner(fake *fakeProvisioning) *Provisioner {
	cfg := config.Config{
		Region:        "eastus2",
		ClusterPrefix: "acstor-bench",
		NodeCount:     3,
	}
	return &Provisioner{
		Azure:  fake,
		Config: cfg,
		MergeCredentials: func(kubeconfig []byte) (string, error) {
			return "test-context", nil
		},
	}
}

func TestProvisionRunsStepsInOrder(t *testing.T) {
	fake := &fakeProvisioning{}
	provisioner := newTestProvisioner(fake)

	handle, err := provisioner.Provision(context.Background(), "Standard_L8s_v3")
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	want := []string{"group", "cluster", "credentials", "extension"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected call order: %v", fake.calls)
	}
	if !strings.HasPrefix(handle.ResourceGroup, "acstor-bench-") {
		t.Fatalf("unexpected resource group name: %s", handle.ResourceGroup)
	}
	if fake.created.VMSize != "Standard_L8s_v3" {
		t.Fatalf("unexpected vm size: %s", fake.created.VMSize)
	}
	if fake.created.NodeCount != 3 {
		t.Fatalf("unexpected node count: %d", fake.created.NodeCount)
	}
	if handle.Context != "test-context" {
		t.Fatalf("unexpected context: %s", handle.Context)
	}
}

func TestProvisionAbortsOnFirstFailure(t *testing.T) {
	fake := &fakeProvisioning{failAt: "cluster"}
	provisioner := newTestProvisioner(fake)

	if _, err := provisioner.Provision(context.Background(), "Standard_D4s_v3"); err == nil {
		t.Fatalf("expected error from failed cluster creation")
	}
	for _, call := range fake.calls {
		if call == "credentials" || call == "extension" {
			t.Fatalf("later steps must not run after a failure: %v", fake.calls)
		}
	}
}

func TestProvisionSuffixesAreUnique(t *testing.T) {
	fake := &fakeProvisioning{}
	provisioner := newTestProvisioner(fake)

	first, err := provisioner.Provision(context.Background(), "Standard_D4s_v3")
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	second, err := provisioner.Provision(context.Background(), "Standard_D4s_v3")
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if first.ResourceGroup == second.ResourceGroup {
		t.Fatalf("expected unique resource group names, got %s twice", first.ResourceGroup)
	}
}
