package nuke

import (
	"time"

	"github.com/eh8/acstor/internal/k8s"
)

// KubeconfigContexts backs ContextOps with the local kubeconfig.
type KubeconfigContexts struct{}

func (KubeconfigContexts) List() ([]string, error) {
	return k8s.ListContexts()
}

func (KubeconfigContexts) Probe(name string, timeout time.Duration) error {
	return k8s.ProbeContext(name, timeout)
}

func (KubeconfigContexts) Delete(name string) error {
	return k8s.DeleteContext(name)
}
