package nuke

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eh8/acstor/internal/logging"
	"github.com/eh8/acstor/internal/metrics"
)

// ContextOps is the slice of kubeconfig handling the context sweep needs.
type ContextOps interface {
	List() ([]string, error)
	Probe(name string, timeout time.Duration) error
	Delete(name string) error
}

// ResourceOps is the slice of the Azure management plane the resource sweep
// needs.
type ResourceOps interface {
	ListBenchResourceGroups(ctx context.Context, namePrefix string) ([]string, error)
	CountResources(ctx context.Context, resourceGroup string) (map[string]int, error)
	DeleteResourceGroupAsync(ctx context.Context, name string) error
}

// Options: both sweeps preview by default; Delete opts into the destructive
// action, Inspect adds per-group resource detail to the resource sweep.
type Options struct {
	Delete  bool
	Inspect bool
}

type Service struct {
	Contexts  ContextOps
	Resources ResourceOps
	Logger    *slog.Logger

	NamePrefix   string
	ProbeTimeout time.Duration
	CacheTTL     time.Duration
	Now          func() time.Time

	cacheOnce sync.Once
	cache     *probeCache
}

type ContextReport struct {
	Active  []string
	Stale   []string
	Deleted []string
	Failed  map[string]error
}

type ResourceReport struct {
	Matched   []string
	Initiated int
	Failed    map[string]error
	Inspected map[string]map[string]int
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.GetLogger()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) probeCache() *probeCache {
	s.cacheOnce.Do(func() {
		s.cache = newProbeCache(s.CacheTTL)
	})
	return s.cache
}

// SweepContexts classifies every kubeconfig context as active or stale and,
// only with Delete set, removes the stale ones. Preview mode never calls
// Delete. A failed per-item delete is reported and the sweep carries on.
func (s *Service) SweepContexts(opts Options) (ContextReport, error) {
	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	names, err := s.Contexts.List()
	if err != nil {
		return ContextReport{}, err
	}
	sort.Strings(names)

	report := ContextReport{Failed: map[string]error{}}
	cache := s.probeCache()
	for _, name := range names {
		active, cached := cache.lookup(name, s.now())
		if !cached {
			active = s.Contexts.Probe(name, timeout) == nil
			cache.store(name, active, s.now())
		}
		if active {
			report.Active = append(report.Active, name)
		} else {
			report.Stale = append(report.Stale, name)
		}
	}

	s.logger().Info("context sweep",
		logging.IntField("active", len(report.Active)),
		logging.IntField("stale", len(report.Stale)),
	)
	metrics.NukeItemsFound.WithLabelValues("contexts", "active").Set(float64(len(report.Active)))
	metrics.NukeItemsFound.WithLabelValues("contexts", "stale").Set(float64(len(report.Stale)))

	if !opts.Delete {
		return report, nil
	}

	for _, name := range report.Stale {
		if err := s.Contexts.Delete(name); err != nil {
			s.logger().Error("failed to delete context",
				logging.StringField("context", name),
				logging.ErrorField(err),
			)
			report.Failed[name] = err
			continue
		}
		s.logger().Info("deleted stale context", logging.StringField("context", name))
		report.Deleted = append(report.Deleted, name)
	}
	return report, nil
}

// SweepResources lists resource groups created by this tool and, only with
// Delete set, fires a non-blocking deletion request per match. Group deletion
// is asynchronous on the Azure side, so the report counts initiations, not
// completions. Deletes fan out concurrently; each failure is captured
// per-item and never aborts the batch.
func (s *Service) SweepResources(ctx context.Context, opts Options) (ResourceReport, error) {
	prefix := s.NamePrefix
	if prefix == "" {
		prefix = "acstor-bench-"
	}

	matched, err := s.Resources.ListBenchResourceGroups(ctx, prefix)
	if err != nil {
		return ResourceReport{}, err
	}
	sort.Strings(matched)

	report := ResourceReport{
		Matched: matched,
		Failed:  map[string]error{},
	}
	metrics.NukeItemsFound.WithLabelValues("resources", "matched").Set(float64(len(matched)))

	if len(matched) == 0 {
		s.logger().Info("no matching resource groups")
		return report, nil
	}

	if opts.Inspect {
		report.Inspected = map[string]map[string]int{}
		for _, name := range matched {
			counts, err := s.Resources.CountResources(ctx, name)
			if err != nil {
				s.logger().Warn("failed to inspect resource group",
					logging.StringField("group", name),
					logging.ErrorField(err),
				)
				continue
			}
			report.Inspected[name] = counts
			for resourceType, count := range counts {
				s.logger().Info("resource group contents",
					logging.StringField("group", name),
					logging.StringField("type", resourceType),
					logging.IntField("count", count),
				)
			}
		}
	}

	if !opts.Delete {
		s.logger().Info("preview only: no resource groups deleted",
			logging.IntField("matched", len(matched)),
		)
		return report, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, name := range matched {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Resources.DeleteResourceGroupAsync(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger().Error("failed to request deletion",
					logging.StringField("group", name),
					logging.ErrorField(err),
				)
				report.Failed[name] = err
				return
			}
			report.Initiated++
			s.logger().Info("deletion initiated", logging.StringField("group", name))
		}()
	}
	wg.Wait()

	s.logger().Info("resource sweep done",
		logging.IntField("initiated", report.Initiated),
		logging.IntField("failed", len(report.Failed)),
	)
	return report, nil
}
