package k8s

import (
	"fmt"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

func ListContexts() ([]string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %v", err)
	}
	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	return names, nil
}

// ProbeContext performs a cheap API-server round trip against the named
// context. A short client timeout keeps unreachable clusters from stalling
// the sweep.
func ProbeContext(name string, timeout time.Duration) error {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %v", err)
	}
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found in kubeconfig", name)
	}
	restConfig, err := clientcmd.NewNonInteractiveClientConfig(*cfg, name, &clientcmd.ConfigOverrides{}, rules).ClientConfig()
	if err != nil {
		return err
	}
	restConfig.Timeout = timeout

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return err
	}
	_, err = client.Discovery().ServerVersion()
	return err
}

// DeleteContext removes the named context from the local kubeconfig. The
// referenced cluster and user entries are left alone since other contexts may
// share them.
func DeleteContext(name string) error {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %v", err)
	}
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found in kubeconfig", name)
	}
	delete(cfg.Contexts, name)
	if cfg.CurrentContext == name {
		cfg.CurrentContext = ""
	}
	return clientcmd.ModifyConfig(rules, *cfg, true)
}
