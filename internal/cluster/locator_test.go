package cluster

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func azureNode(name string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: corev1.NodeSpec{
			ProviderID: "azure:///subscriptions/xxx/resourceGroups/mc_rg/providers/Microsoft.Compute/virtualMachineScaleSets/aks-nodepool1/virtualMachines/0",
		},
	}
}

func TestLocateFindsContainerStorageCluster(t *testing.T) {
	client := fake.NewSimpleClientset(
		&storagev1.StorageClass{
			ObjectMeta:  metav1.ObjectMeta{Name: "acstor-bench-ephemeral-nvme"},
			Provisioner: ContainerStorageProvisioner,
		},
		azureNode("node-1"),
	)
	locator := &Locator{Client: client}
	if !locator.Locate(context.Background()) {
		t.Fatalf("expected cluster to be located")
	}
}

func TestLocateRejectsProvisionerMismatch(t *testing.T) {
	// Same class name, different provisioner: must not count.
	client := fake.NewSimpleClientset(
		&storagev1.StorageClass{
			ObjectMeta:  metav1.ObjectMeta{Name: "acstor-bench-ephemeral-nvme"},
			Provisioner: "kubernetes.io/no-provisioner",
		},
		azureNode("node-1"),
	)
	locator := &Locator{Client: client}
	if locator.Locate(context.Background()) {
		t.Fatalf("expected mismatched provisioner to be rejected")
	}
}

func TestLocateRejectsNonAzureNodes(t *testing.T) {
	client := fake.NewSimpleClientset(
		&storagev1.StorageClass{
			ObjectMeta:  metav1.ObjectMeta{Name: "acstor-pool"},
			Provisioner: ContainerStorageProvisioner,
		},
		&corev1.Node{
			ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
			Spec:       corev1.NodeSpec{ProviderID: "gce://project/zone/instance"},
		},
	)
	locator := &Locator{Client: client}
	if locator.Locate(context.Background()) {
		t.Fatalf("expected non-Azure cluster to be rejected")
	}
}

func TestLocateRejectsEmptyCluster(t *testing.T) {
	locator := &Locator{Client: fake.NewSimpleClientset()}
	if locator.Locate(context.Background()) {
		t.Fatalf("expected empty cluster to be rejected")
	}
}
