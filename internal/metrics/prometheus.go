package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/eh8/acstor/internal/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var serverOnce sync.Once

// StartMetricsServer exposes the run registry on /metrics. The server uses
// its own mux so nothing else leaks onto the endpoint, and only the first
// call starts it.
func StartMetricsServer(port int) {
	serverOnce.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
				logging.GetLogger().Error("metrics server error", logging.ErrorField(err))
			}
		}()
	})
}
