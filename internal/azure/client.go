package azure

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/kubernetesconfiguration/armkubernetesconfiguration/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

type Client struct {
	Location string

	ResourceGroupsClient  *armresources.ResourceGroupsClient
	ResourcesClient       *armresources.Client
	ManagedClustersClient *armcontainerservice.ManagedClustersClient
	ExtensionsClient      *armkubernetesconfiguration.ExtensionsClient
}

func New(subscriptionID, location string) (*Client, error) {
	client := &Client{
		Location: location,
	}

	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, err
	}

	resourcesFactory, err := armresources.NewClientFactory(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}

	containerServiceFactory, err := armcontainerservice.NewClientFactory(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}

	extensionsClient, err := armkubernetesconfiguration.NewExtensionsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}

	client.ResourceGroupsClient = resourcesFactory.NewResourceGroupsClient()
	client.ResourcesClient = resourcesFactory.NewClient()
	client.ManagedClustersClient = containerServiceFactory.NewManagedClustersClient()
	client.ExtensionsClient = extensionsClient

	return client, nil
}
