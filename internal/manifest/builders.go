package manifest

import (
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	// Namespace Azure Container Storage watches for StoragePool objects.
	StoragePoolNamespace = "acstor"

	managedLabel = "app.kubernetes.io/managed-by"
	managedBy    = "acstor-bench"
)

var (
	StoragePoolGVR = schema.GroupVersionResource{
		Group:    "containerstorage.azure.com",
		Version:  "v1",
		Resource: "storagepools",
	}
	PostgresClusterGVR = schema.GroupVersionResource{
		Group:    "postgresql.cnpg.io",
		Version:  "v1",
		Resource: "clusters",
	}
)

func StoragePool(backend Backend, capacity string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "containerstorage.azure.com/v1",
			"kind":       "StoragePool",
			"metadata": map[string]interface{}{
				"name":      backend.PoolName(),
				"namespace": StoragePoolNamespace,
				"labels": map[string]interface{}{
					managedLabel: managedBy,
				},
			},
			"spec": map[string]interface{}{
				"poolType": backend.PoolTypeSpec(),
				"resources": map[string]interface{}{
					"requests": map[string]interface{}{
						"storage": capacity,
					},
				},
			},
		},
	}
}

// PremiumV2StorageClass provisions Premium SSD v2 disks directly through the
// Azure Disk CSI driver, bypassing the container storage pool path.
func PremiumV2StorageClass(name string) *storagev1.StorageClass {
	reclaim := corev1.PersistentVolumeReclaimDelete
	binding := storagev1.VolumeBindingWaitForFirstConsumer
	return &storagev1.StorageClass{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{managedLabel: managedBy},
		},
		Provisioner: "disk.csi.azure.com",
		Parameters: map[string]string{
			"skuname":     "PremiumV2_LRS",
			"cachingMode": "None",
		},
		ReclaimPolicy:     &reclaim,
		VolumeBindingMode: &binding,
	}
}

func PVC(name, namespace, storageClass, size string) *corev1.PersistentVolumeClaim {
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{managedLabel: managedBy},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(size),
				},
			},
		},
	}
}

// FioPod mounts the benchmark volume and idles so fio runs can be exec'd
// against it.
func FioPod(name, namespace, pvcName string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{managedLabel: managedBy},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:    "fio",
					Image:   "nixery.dev/shell/fio",
					Command: []string{"sleep", "1000000"},
					VolumeMounts: []corev1.VolumeMount{
						{Name: "bench-volume", MountPath: "/volume"},
					},
				},
			},
			Volumes: []corev1.Volume{
				{
					Name: "bench-volume",
					VolumeSource: corev1.VolumeSource{
						PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
							ClaimName: pvcName,
						},
					},
				},
			},
		},
	}
}

// PostgresCluster builds a replicated CloudNativePG cluster bound to the
// given storage class.
func PostgresCluster(name, namespace, storageClass string, instances int64, size string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "postgresql.cnpg.io/v1",
			"kind":       "Cluster",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
				"labels": map[string]interface{}{
					managedLabel: managedBy,
				},
			},
			"spec": map[string]interface{}{
				"instances": instances,
				"storage": map[string]interface{}{
					"storageClass": storageClass,
					"size":         size,
				},
			},
		},
	}
}
