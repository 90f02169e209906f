package k8s

import (
	"context"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

func ListNodes(ctx context.Context, client kubernetes.Interface, selector string) ([]corev1.Node, error) {
	list, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// AnyNodeHasProviderPrefix reports whether at least one node's provider ID
// carries the given prefix (e.g. "azure://" for AKS nodes).
func AnyNodeHasProviderPrefix(nodes []corev1.Node, prefix string) bool {
	for _, node := range nodes {
		if strings.HasPrefix(node.Spec.ProviderID, prefix) {
			return true
		}
	}
	return false
}
