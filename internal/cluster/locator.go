package cluster

import (
	"context"
	"log/slog"

	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"

	"k8s.io/client-go/kubernetes"
)

const (
	// ContainerStorageProvisioner is the CSI driver name Azure Container
	// Storage registers its storage classes under.
	ContainerStorageProvisioner = "containerstorage.csi.azure.com"

	azureProviderPrefix = "azure://"
)

// Locator decides whether the currently reachable cluster can serve a run
// without provisioning a new one.
type Locator struct {
	Client kubernetes.Interface
	Logger *slog.Logger
}

// Locate returns true when the active context points at an AKS cluster with
// Azure Container Storage installed. Every query error means "not found":
// the caller falls back to provisioning, it never aborts here.
func (l *Locator) Locate(ctx context.Context) bool {
	logger := l.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	classes, err := k8s.ListStorageClasses(ctx, l.Client)
	if err != nil {
		logger.Info("no reusable cluster: storage class query failed", logging.ErrorField(err))
		return false
	}
	if !k8s.HasProvisioner(classes, ContainerStorageProvisioner) {
		logger.Info("no reusable cluster: container storage provisioner not found")
		return false
	}

	nodes, err := k8s.ListNodes(ctx, l.Client, "")
	if err != nil {
		logger.Info("no reusable cluster: node query failed", logging.ErrorField(err))
		return false
	}
	if !k8s.AnyNodeHasProviderPrefix(nodes, azureProviderPrefix) {
		logger.Info("no reusable cluster: nodes are not Azure-backed")
		return false
	}

	logger.Info("reusing existing cluster with container storage")
	return true
}
