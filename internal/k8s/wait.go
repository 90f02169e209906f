package k8s

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

func WaitForPodReady(ctx context.Context, client kubernetes.Interface, namespace, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return wait.PollImmediate(2*time.Second, timeout, func() (bool, error) {
		pod, err := client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		if pod.Status.Phase != corev1.PodRunning {
			return false, nil
		}
		return isPodReady(pod), nil
	})
}

func WaitForPodSucceeded(ctx context.Context, client kubernetes.Interface, namespace, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return wait.PollImmediate(2*time.Second, timeout, func() (bool, error) {
		pod, err := client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		switch pod.Status.Phase {
		case corev1.PodSucceeded:
			return true, nil
		case corev1.PodFailed:
			return false, &PodFailedError{Namespace: namespace, Name: name, Reason: pod.Status.Reason}
		default:
			return false, nil
		}
	})
}

func WaitForPodDeleted(ctx context.Context, client kubernetes.Interface, namespace, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return wait.PollImmediate(1*time.Second, timeout, func() (bool, error) {
		_, err := client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
		if err == nil {
			return false, nil
		}
		if errors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	})
}

func WaitForPVCBound(ctx context.Context, client kubernetes.Interface, namespace, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return wait.PollImmediate(2*time.Second, timeout, func() (bool, error) {
		pvc, err := client.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return pvc.Status.Phase == corev1.ClaimBound, nil
	})
}

// WaitForUnstructuredReady polls a custom resource until a status condition of
// the given type reports "True". Used for storage pools and database clusters
// whose readiness is surfaced the standard conditions way.
func WaitForUnstructuredReady(ctx context.Context, client dynamic.Interface, gvr schema.GroupVersionResource, namespace, name, conditionType string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		obj, err := client.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if errors.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		conditions, found, err := unstructuredConditions(obj.Object)
		if err != nil || !found {
			return false, nil
		}
		for _, cond := range conditions {
			if cond.Type == conditionType && cond.Status == "True" {
				return true, nil
			}
		}
		return false, nil
	})
}

func WaitForUnstructuredDeleted(ctx context.Context, client dynamic.Interface, gvr schema.GroupVersionResource, namespace, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return wait.PollImmediate(2*time.Second, timeout, func() (bool, error) {
		_, err := client.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
		if err == nil {
			return false, nil
		}
		if errors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	})
}

func isPodReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
