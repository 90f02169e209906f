package run

import (
	"context"
	"testing"
	"time"

	"github.com/eh8/acstor/internal/manifest"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func newCleanupApplier(dynamicClient *dynamicfake.FakeDynamicClient) *manifest.Applier {
	return &manifest.Applier{
		Kube:                 fake.NewSimpleClientset(),
		Dynamic:              dynamicClient,
		DeleteConfirmTimeout: 20 * time.Millisecond,
		ReadyTimeout:         20 * time.Millisecond,
	}
}

func newCleanupDynamicClient(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			manifest.StoragePoolGVR:     "StoragePoolList",
			manifest.PostgresClusterGVR: "ClusterList",
		}, objects...)
}

func TestCleanupBenchSucceedsWithNothingToDelete(t *testing.T) {
	applier := newCleanupApplier(newCleanupDynamicClient())
	CleanupBench(context.Background(), applier, nil)
}

func TestCleanupBenchStripsFinalizersOnWedgedResource(t *testing.T) {
	wedged := manifest.PostgresCluster("pg-bench", BenchNamespace, "acstor-bench-azure-disk", 3, "50Gi")
	wedged.SetFinalizers([]string{"cnpg.io/deleteFinalizer"})

	dynamicClient := newCleanupDynamicClient(wedged)
	// A delete is swallowed while finalizers remain, the way the API server
	// holds an object whose finalizing controller never acts.
	dynamicClient.PrependReactor("delete", "clusters", func(action k8stesting.Action) (bool, runtime.Object, error) {
		obj, err := dynamicClient.Tracker().Get(manifest.PostgresClusterGVR, BenchNamespace, "pg-bench")
		if err != nil {
			return false, nil, nil
		}
		if len(obj.(*unstructured.Unstructured).GetFinalizers()) > 0 {
			return true, nil, nil
		}
		return false, nil, nil
	})

	applier := newCleanupApplier(dynamicClient)
	CleanupBench(context.Background(), applier, nil)

	_, err := dynamicClient.Resource(manifest.PostgresClusterGVR).Namespace(BenchNamespace).Get(context.Background(), "pg-bench", metav1.GetOptions{})
	if err == nil {
		t.Fatalf("wedged cluster should be gone after the finalizer strip pass")
	}
}
