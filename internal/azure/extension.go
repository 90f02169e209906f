package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/kubernetesconfiguration/armkubernetesconfiguration/v2"
)

const containerStorageExtensionType = "microsoft.azurecontainerstorage"

// InstallContainerStorage installs the Azure Container Storage extension on
// an AKS cluster and waits for the install to finish. Like cluster creation,
// a failure here is fatal: every later step assumes the extension is running.
func (c *Client) InstallContainerStorage(ctx context.Context, resourceGroup, clusterName string) error {
	poller, err := c.ExtensionsClient.BeginCreate(ctx,
		resourceGroup,
		"Microsoft.ContainerService",
		"managedClusters",
		clusterName,
		"azurecontainerstorage",
		armkubernetesconfiguration.Extension{
			Properties: &armkubernetesconfiguration.ExtensionProperties{
				ExtensionType:           to.Ptr(containerStorageExtensionType),
				AutoUpgradeMinorVersion: to.Ptr(true),
			},
		}, nil)
	if err != nil {
		return fmt.Errorf("failed to start container storage install: %v", err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("container storage install failed: %v", err)
	}
	return nil
}
