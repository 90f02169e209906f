package run

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/manifest"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

const finalizerStripAttempts = 3

// CleanupBench removes every benchmark object a previous run may have left:
// the fio pod, its claim, the database cluster and all bench storage pools.
// Deletes are independent once issued, so they fan out concurrently and are
// jointly awaited. Custom resources whose delete-confirm wait expires get a
// second pass after the join: their finalizers are stripped so a delete
// wedged on a gone controller can complete. Each failure is reported
// per-item and the rest of the batch proceeds. Calling this with nothing
// left to delete succeeds.
func CleanupBench(ctx context.Context, applier *manifest.Applier, logger *slog.Logger) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	type resourceRef struct {
		gvr       schema.GroupVersionResource
		namespace string
		name      string
	}

	type task struct {
		name string
		ref  *resourceRef
		fn   func() error
	}

	tasks := []task{
		{name: "pod/" + fioPodName, fn: func() error {
			return applier.EnsurePodAbsent(ctx, BenchNamespace, fioPodName)
		}},
		{name: "pvc/" + fioPVCName, fn: func() error {
			return applier.EnsurePVCAbsent(ctx, BenchNamespace, fioPVCName)
		}},
		{name: "cluster/" + pgClusterName,
			ref: &resourceRef{manifest.PostgresClusterGVR, BenchNamespace, pgClusterName},
			fn: func() error {
				return applier.EnsureUnstructuredAbsent(ctx, manifest.PostgresClusterGVR, BenchNamespace, pgClusterName)
			}},
	}
	for _, backend := range manifest.Backends() {
		backend := backend
		if !backend.UsesPool() {
			continue
		}
		tasks = append(tasks, task{
			name: "storagepool/" + backend.PoolName(),
			ref:  &resourceRef{manifest.StoragePoolGVR, manifest.StoragePoolNamespace, backend.PoolName()},
			fn: func() error {
				return applier.EnsureUnstructuredAbsent(ctx, manifest.StoragePoolGVR, manifest.StoragePoolNamespace, backend.PoolName())
			},
		})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	var stuck []task
	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.fn(); err != nil {
				mu.Lock()
				defer mu.Unlock()
				if t.ref != nil {
					stuck = append(stuck, t)
					return
				}
				failed++
				logger.Error("cleanup item failed",
					logging.StringField("item", t.name),
					logging.ErrorField(err),
				)
				return
			}
			logger.Info("cleanup item done", logging.StringField("item", t.name))
		}()
	}
	wg.Wait()

	// Custom resources still present at this point are usually held by a
	// finalizer whose controller no longer runs.
	for _, t := range stuck {
		if err := stripAndRetry(ctx, applier, t.ref.gvr, t.ref.namespace, t.ref.name, t.fn); err != nil {
			failed++
			logger.Error("cleanup item failed",
				logging.StringField("item", t.name),
				logging.ErrorField(err),
			)
			continue
		}
		logger.Info("cleanup item done after finalizer strip", logging.StringField("item", t.name))
	}

	logger.Info("benchmark cleanup finished",
		logging.IntField("items", len(tasks)),
		logging.IntField("failed", failed),
	)
}

func stripAndRetry(ctx context.Context, applier *manifest.Applier, gvr schema.GroupVersionResource, namespace, name string, ensureAbsent func() error) error {
	var err error
	for attempt := 0; attempt < finalizerStripAttempts; attempt++ {
		if err = applier.StripFinalizers(ctx, gvr, namespace, name); err != nil {
			continue
		}
		if err = ensureAbsent(); err == nil {
			return nil
		}
	}
	return err
}
