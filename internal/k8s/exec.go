package k8s

import (
	"bytes"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// Exec runs a command in a pod and returns its combined output. Benchmark
// tools are invoked through this; a non-zero exit comes back as an error with
// whatever output the tool produced.
type Exec func(ctx context.Context, namespace, pod, container string, command []string) (string, error)

// NewPodExec builds an Exec backed by the API server's exec subresource.
func NewPodExec(client kubernetes.Interface, restConfig *rest.Config) Exec {
	return func(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
		clientset, ok := client.(*kubernetes.Clientset)
		if !ok {
			return "", fmt.Errorf("pod exec requires a real clientset")
		}
		req := clientset.CoreV1().RESTClient().Post().
			Resource("pods").
			Namespace(namespace).
			Name(pod).
			SubResource("exec").
			VersionedParams(&corev1.PodExecOptions{
				Container: container,
				Command:   command,
				Stdout:    true,
				Stderr:    true,
			}, scheme.ParameterCodec)

		executor, err := remotecommand.NewSPDYExecutor(restConfig, "POST", req.URL())
		if err != nil {
			return "", fmt.Errorf("failed to build executor: %v", err)
		}

		var stdout, stderr bytes.Buffer
		err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdout: &stdout,
			Stderr: &stderr,
		})
		output := stdout.String()
		if stderr.Len() > 0 {
			output += stderr.String()
		}
		if err != nil {
			return output, fmt.Errorf("exec in pod %s/%s failed: %v", namespace, pod, err)
		}
		return output, nil
	}
}
