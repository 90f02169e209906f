package k8s

import (
	"fmt"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

type ClientInfo struct {
	Context string `json:"context"`
	Server  string `json:"server"`
}

type Clients struct {
	Kube       kubernetes.Interface
	Dynamic    dynamic.Interface
	RestConfig *rest.Config
	Info       ClientInfo
}

func NewClients(qps float32, burst int) (*Clients, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	rawConfig, err := kubeConfig.RawConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw kubeconfig: %v", err)
	}

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config: %v", err)
	}

	restConfig.QPS = qps
	restConfig.Burst = burst

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %v", err)
	}

	dynClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %v", err)
	}

	return &Clients{
		Kube:       clientset,
		Dynamic:    dynClient,
		RestConfig: restConfig,
		Info: ClientInfo{
			Context: rawConfig.CurrentContext,
			Server:  restConfig.Host,
		},
	}, nil
}
