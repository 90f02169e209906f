package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"k8s.io/client-go/tools/clientcmd"
)

const managementScope = "https://management.azure.com/.default"

// Check verifies prerequisites before any side effect: the Azure CLI is on
// PATH and its login session can mint a management-plane token. A failure
// here is fatal to the caller.
func Check(ctx context.Context) error {
	if _, err := exec.LookPath("az"); err != nil {
		return fmt.Errorf("azure cli not found on PATH: install it and run `az login`")
	}

	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return fmt.Errorf("failed to build azure credential: %v", err)
	}

	tokenCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := cred.GetToken(tokenCtx, policy.TokenRequestOptions{Scopes: []string{managementScope}}); err != nil {
		return fmt.Errorf("no active azure login session: run `az login` (%v)", err)
	}
	return nil
}

// HasKubeconfig reports whether a kubeconfig with at least one context is
// available. Absence is not fatal: a run without one simply provisions.
func HasKubeconfig() bool {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := rules.Load()
	if err != nil {
		return false
	}
	return len(cfg.Contexts) > 0
}
