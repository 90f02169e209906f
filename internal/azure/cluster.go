package azure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"k8s.io/client-go/tools/clientcmd"
)

type ClusterSpec struct {
	ResourceGroup string
	Name          string
	NodeCount     int32
	VMSize        string
}

// CreateCluster provisions an AKS cluster and blocks until the service
// reports it done. Creation failure is fatal to the caller; there is no retry
// because a retried create can leave partial resources behind.
func (c *Client) CreateCluster(ctx context.Context, spec ClusterSpec) (*armcontainerservice.ManagedCluster, error) {
	poller, err := c.ManagedClustersClient.BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, armcontainerservice.ManagedCluster{
		Location: to.Ptr(c.Location),
		Identity: &armcontainerservice.ManagedClusterIdentity{
			Type: to.Ptr(armcontainerservice.ResourceIdentityTypeSystemAssigned),
		},
		Properties: &armcontainerservice.ManagedClusterProperties{
			DNSPrefix: to.Ptr(spec.Name),
			AgentPoolProfiles: []*armcontainerservice.ManagedClusterAgentPoolProfile{
				{
					Name:   to.Ptr("nodepool1"),
					Count:  to.Ptr(spec.NodeCount),
					VMSize: to.Ptr(spec.VMSize),
					Mode:   to.Ptr(armcontainerservice.AgentPoolModeSystem),
					OSType: to.Ptr(armcontainerservice.OSTypeLinux),
				},
			},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start cluster creation: %v", err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cluster creation failed: %v", err)
	}
	return &resp.ManagedCluster, nil
}

func (c *Client) ClusterCredentials(ctx context.Context, resourceGroup, name string) ([]byte, error) {
	resp, err := c.ManagedClustersClient.ListClusterAdminCredentials(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster credentials: %v", err)
	}
	if len(resp.Kubeconfigs) == 0 || resp.Kubeconfigs[0].Value == nil {
		return nil, fmt.Errorf("cluster %s returned no kubeconfig", name)
	}
	return resp.Kubeconfigs[0].Value, nil
}

// MergeCredentials merges a cluster kubeconfig into the local one and points
// the current context at it, the way `az aks get-credentials` does.
func MergeCredentials(kubeconfig []byte) (string, error) {
	incoming, err := clientcmd.Load(kubeconfig)
	if err != nil {
		return "", fmt.Errorf("failed to parse cluster kubeconfig: %v", err)
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	local, err := rules.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load local kubeconfig: %v", err)
	}

	for name, cluster := range incoming.Clusters {
		local.Clusters[name] = cluster
	}
	for name, auth := range incoming.AuthInfos {
		local.AuthInfos[name] = auth
	}
	var contextName string
	for name, kubeContext := range incoming.Contexts {
		local.Contexts[name] = kubeContext
		contextName = name
	}
	if contextName == "" {
		return "", fmt.Errorf("cluster kubeconfig has no context")
	}
	local.CurrentContext = contextName

	path := rules.GetDefaultFilename()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := clientcmd.WriteToFile(*local, path); err != nil {
		return "", fmt.Errorf("failed to write kubeconfig: %v", err)
	}
	return contextName, nil
}
