package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_run_info",
		Help: "1 if a benchmark run is currently active",
	}, []string{"mode", "backend", "run_id"})

	TotalDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_total_duration_seconds",
		Help: "Total duration of the last benchmark run",
	}, []string{"mode", "backend", "run_id"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acstorbench_errors_total",
		Help: "Total number of errors during benchmark",
	}, []string{"type"})

	PhaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acstorbench_phase_total",
		Help: "Count of phase markers emitted",
	}, []string{"phase"})

	FioIOPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_fio_iops",
		Help: "IOPS from the last fio run, per direction",
	}, []string{"label", "direction"})

	PgbenchTPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_pgbench_tps",
		Help: "Transactions per second from the last pgbench sub-test",
	}, []string{"sub_test"})

	PgbenchLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_pgbench_latency_ms",
		Help: "Average latency from the last pgbench sub-test",
	}, []string{"sub_test"})

	NukeItemsFound = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acstorbench_nuke_items_found",
		Help: "Items found by the last nuke sweep",
	}, []string{"mode", "state"})
)

var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(RunInfo)
	Registry.MustRegister(TotalDuration)
	Registry.MustRegister(ErrorsTotal)
	Registry.MustRegister(PhaseTotal)
	Registry.MustRegister(FioIOPS)
	Registry.MustRegister(PgbenchTPS)
	Registry.MustRegister(PgbenchLatency)
	Registry.MustRegister(NukeItemsFound)
}

func RecordPhase(name string) {
	PhaseTotal.WithLabelValues(name).Inc()
}
