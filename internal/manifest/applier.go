package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eh8/acstor/internal/k8s"
	"github.com/eh8/acstor/internal/logging"

	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"
)

// Applier creates or replaces the named object set a benchmark needs. Fixed
// names keep reruns collision-free: anything with the same name is deleted
// and confirmed gone before the new object goes in.
type Applier struct {
	Kube    kubernetes.Interface
	Dynamic dynamic.Interface
	Logger  *slog.Logger

	// ArtifactDir receives a YAML rendering of every applied object.
	// Empty disables artifact writing (tests).
	ArtifactDir string

	DeleteConfirmTimeout time.Duration
	ReadyTimeout         time.Duration
}

func (a *Applier) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logging.GetLogger()
}

func (a *Applier) deleteTimeout() time.Duration {
	if a.DeleteConfirmTimeout > 0 {
		return a.DeleteConfirmTimeout
	}
	return 2 * time.Minute
}

func (a *Applier) readyTimeout() time.Duration {
	if a.ReadyTimeout > 0 {
		return a.ReadyTimeout
	}
	return 5 * time.Minute
}

// EnsurePodAbsent deletes a pod if it exists and polls until it is gone.
// Already-absent is success, so calling this twice in a row is a no-op.
func (a *Applier) EnsurePodAbsent(ctx context.Context, namespace, name string) error {
	err := a.Kube.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	return k8s.WaitForPodDeleted(ctx, a.Kube, namespace, name, a.deleteTimeout())
}

func (a *Applier) EnsurePVCAbsent(ctx context.Context, namespace, name string) error {
	err := a.Kube.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}

func (a *Applier) EnsureUnstructuredAbsent(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	err := a.Dynamic.Resource(gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	return k8s.WaitForUnstructuredDeleted(ctx, a.Dynamic, gvr, namespace, name, a.deleteTimeout())
}

// StripFinalizers clears metadata.finalizers on a custom resource whose
// delete has stalled because the owning controller is gone. Already-absent
// is success.
func (a *Applier) StripFinalizers(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	patch := []byte(`{"metadata":{"finalizers":[]}}`)
	_, err := a.Dynamic.Resource(gvr).Namespace(namespace).Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}

func (a *Applier) EnsureNamespace(ctx context.Context, name string) error {
	_, err := a.Kube.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// ApplyStorageClass creates the class if missing. Storage classes are
// immutable in the fields we set, so an existing one is left alone.
func (a *Applier) ApplyStorageClass(ctx context.Context, sc *storagev1.StorageClass) error {
	if err := a.writeArtifact(sc.Name, sc); err != nil {
		return err
	}
	_, err := a.Kube.StorageV1().StorageClasses().Create(ctx, sc, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

func (a *Applier) ApplyPVC(ctx context.Context, pvc *corev1.PersistentVolumeClaim) error {
	if err := a.writeArtifact(pvc.Name, pvc); err != nil {
		return err
	}
	_, err := a.Kube.CoreV1().PersistentVolumeClaims(pvc.Namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// ApplyPod replaces any same-named pod and waits for the new one to become
// ready. A readiness timeout is a warning with a status dump, not a failure;
// the caller decides whether it can proceed.
func (a *Applier) ApplyPod(ctx context.Context, pod *corev1.Pod) error {
	if err := a.EnsurePodAbsent(ctx, pod.Namespace, pod.Name); err != nil {
		return err
	}
	if err := a.writeArtifact(pod.Name, pod); err != nil {
		return err
	}
	if _, err := a.Kube.CoreV1().Pods(pod.Namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		return err
	}
	if err := k8s.WaitForPodReady(ctx, a.Kube, pod.Namespace, pod.Name, a.readyTimeout()); err != nil {
		a.logger().Warn("pod not ready within timeout",
			logging.StringField("pod", pod.Name),
			logging.ErrorField(err),
		)
		a.dumpPodStatus(ctx, pod.Namespace, pod.Name)
	}
	return nil
}

// ApplyUnstructured replaces any same-named custom resource and waits for the
// given status condition. Same warning semantics as ApplyPod.
func (a *Applier) ApplyUnstructured(ctx context.Context, gvr schema.GroupVersionResource, obj *unstructured.Unstructured, conditionType string) error {
	namespace := obj.GetNamespace()
	name := obj.GetName()
	if err := a.EnsureUnstructuredAbsent(ctx, gvr, namespace, name); err != nil {
		return err
	}
	if err := a.writeArtifact(name, obj.Object); err != nil {
		return err
	}
	if _, err := a.Dynamic.Resource(gvr).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{}); err != nil {
		return err
	}
	if conditionType == "" {
		return nil
	}
	if err := k8s.WaitForUnstructuredReady(ctx, a.Dynamic, gvr, namespace, name, conditionType, a.readyTimeout()); err != nil {
		a.logger().Warn("resource not ready within timeout",
			logging.StringField("kind", obj.GetKind()),
			logging.StringField("name", name),
			logging.ErrorField(err),
		)
	}
	return nil
}

func (a *Applier) dumpPodStatus(ctx context.Context, namespace, name string) {
	pod, err := a.Kube.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		a.logger().Warn("pod status unavailable", logging.ErrorField(err))
		return
	}
	a.logger().Warn("pod status",
		logging.StringField("phase", string(pod.Status.Phase)),
		logging.StringField("reason", pod.Status.Reason),
		logging.StringField("message", pod.Status.Message),
	)
	for _, cond := range pod.Status.Conditions {
		if cond.Status == corev1.ConditionTrue {
			continue
		}
		a.logger().Warn("pod condition",
			logging.StringField("type", string(cond.Type)),
			logging.StringField("reason", cond.Reason),
			logging.StringField("message", cond.Message),
		)
	}
	if logs, err := k8s.PodLogs(ctx, a.Kube, namespace, name, 20); err == nil && logs != "" {
		a.logger().Warn("pod logs", logging.StringField("tail", logs))
	}
}

func (a *Applier) writeArtifact(name string, obj interface{}) error {
	if a.ArtifactDir == "" {
		return nil
	}
	data, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to render manifest %s: %v", name, err)
	}
	path := filepath.Join(a.ArtifactDir, name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %v", path, err)
	}
	return nil
}
