package azure

import (
	"context"
	"errors"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// OwnershipTag marks resource groups created by this tool so the resource
// sweep never touches anything else.
const OwnershipTag = "acstor-bench"

func (c *Client) CreateResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error) {
	resp, err := c.ResourceGroupsClient.CreateOrUpdate(ctx, name, armresources.ResourceGroup{
		Location: to.Ptr(c.Location),
		Tags: map[string]*string{
			OwnershipTag: to.Ptr("true"),
		},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &resp.ResourceGroup, nil
}

// DeleteResourceGroupAsync requests deletion without waiting for it to
// complete. Resource group deletion takes minutes; the sweep only needs the
// request acknowledged.
func (c *Client) DeleteResourceGroupAsync(ctx context.Context, name string) error {
	_, err := c.ResourceGroupsClient.BeginDelete(ctx, name, nil)
	if err != nil {
		var respError *azcore.ResponseError
		if errors.As(err, &respError) && respError.StatusCode == 404 {
			return nil
		}
		return err
	}
	return nil
}

// ListBenchResourceGroups returns the names of resource groups created by
// this tool, matched by name prefix and the ownership tag.
func (c *Client) ListBenchResourceGroups(ctx context.Context, namePrefix string) ([]string, error) {
	var names []string
	pager := c.ResourceGroupsClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, rg := range page.Value {
			if rg.Name == nil || !strings.HasPrefix(*rg.Name, namePrefix) {
				continue
			}
			if !hasOwnershipTag(rg.Tags) {
				continue
			}
			names = append(names, *rg.Name)
		}
	}
	return names, nil
}

// CountResources tallies resources in a group by type, for inspect mode.
func (c *Client) CountResources(ctx context.Context, resourceGroup string) (map[string]int, error) {
	counts := map[string]int{}
	pager := c.ResourcesClient.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, res := range page.Value {
			if res.Type == nil {
				continue
			}
			counts[*res.Type]++
		}
	}
	return counts, nil
}

func hasOwnershipTag(tags map[string]*string) bool {
	v, ok := tags[OwnershipTag]
	return ok && v != nil && *v == "true"
}
