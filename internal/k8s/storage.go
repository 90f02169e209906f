package k8s

import (
	"context"

	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

func ListStorageClasses(ctx context.Context, client kubernetes.Interface) ([]storagev1.StorageClass, error) {
	list, err := client.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// HasProvisioner reports whether any storage class on the cluster is backed by
// the given provisioner. A storage class with a matching name but a different
// provisioner does not count.
func HasProvisioner(classes []storagev1.StorageClass, provisioner string) bool {
	for _, sc := range classes {
		if sc.Provisioner == provisioner {
			return true
		}
	}
	return false
}
