package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eh8/acstor/internal/azure"
	"github.com/eh8/acstor/internal/config"
	"github.com/eh8/acstor/internal/logging"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/google/uuid"
)

// Provisioning talks to the Azure management plane. Narrowed to an interface
// so the sequential create flow is testable without a subscription.
type Provisioning interface {
	CreateResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error)
	CreateCluster(ctx context.Context, spec azure.ClusterSpec) (*armcontainerservice.ManagedCluster, error)
	ClusterCredentials(ctx context.Context, resourceGroup, name string) ([]byte, error)
	InstallContainerStorage(ctx context.Context, resourceGroup, clusterName string) error
}

type Provisioner struct {
	Azure  Provisioning
	Config config.Config
	Logger *slog.Logger

	// MergeCredentials is swapped out in tests to avoid touching the real
	// kubeconfig.
	MergeCredentials func(kubeconfig []byte) (string, error)
}

type Handle struct {
	ResourceGroup string
	ClusterName   string
	Region        string
	VMSize        string
	NodeCount     int32
	Context       string
}

// Provision creates a resource group, an AKS cluster, merges its credentials
// into the local kubeconfig and installs Azure Container Storage. Steps are
// strictly sequential; the first failure aborts the run because everything
// after it assumes a working cluster.
func (p *Provisioner) Provision(ctx context.Context, vmSize string) (Handle, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	merge := p.MergeCredentials
	if merge == nil {
		merge = azure.MergeCredentials
	}

	suffix := randomSuffix()
	resourceGroup := fmt.Sprintf("%s-%s", p.Config.ClusterPrefix, suffix)
	clusterName := fmt.Sprintf("%s-aks-%s", p.Config.ClusterPrefix, suffix)

	logger.Info("creating resource group",
		logging.StringField("name", resourceGroup),
		logging.StringField("region", p.Config.Region),
	)
	if _, err := p.Azure.CreateResourceGroup(ctx, resourceGroup); err != nil {
		return Handle{}, fmt.Errorf("failed to create resource group %s: %v", resourceGroup, err)
	}

	logger.Info("creating AKS cluster",
		logging.StringField("name", clusterName),
		logging.StringField("vm_size", vmSize),
		logging.IntField("nodes", int(p.Config.NodeCount)),
	)
	createCtx := ctx
	if timeout := p.Config.Timeouts.ClusterCreate.Std(); timeout > 0 {
		var cancel context.CancelFunc
		createCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := p.Azure.CreateCluster(createCtx, azure.ClusterSpec{
		ResourceGroup: resourceGroup,
		Name:          clusterName,
		NodeCount:     p.Config.NodeCount,
		VMSize:        vmSize,
	}); err != nil {
		return Handle{}, err
	}

	kubeconfig, err := p.Azure.ClusterCredentials(ctx, resourceGroup, clusterName)
	if err != nil {
		return Handle{}, err
	}
	contextName, err := merge(kubeconfig)
	if err != nil {
		return Handle{}, err
	}
	logger.Info("cluster credentials merged", logging.StringField("context", contextName))

	logger.Info("installing container storage extension")
	if err := p.Azure.InstallContainerStorage(ctx, resourceGroup, clusterName); err != nil {
		return Handle{}, err
	}

	// The group is the unit of manual teardown; make it easy to find.
	logger.Info("provisioning complete",
		logging.StringField("resource_group", resourceGroup),
		logging.StringField("hint", fmt.Sprintf("delete later with: acstor-bench nuke resources --delete (or az group delete -n %s)", resourceGroup)),
	)

	return Handle{
		ResourceGroup: resourceGroup,
		ClusterName:   clusterName,
		Region:        p.Config.Region,
		VMSize:        vmSize,
		NodeCount:     p.Config.NodeCount,
		Context:       contextName,
	}, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
