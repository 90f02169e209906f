package metrics

import "testing"

func TestStartMetricsServerStartsOnlyOnce(t *testing.T) {
	// A second call must not re-register the handler or spawn another
	// listener.
	StartMetricsServer(0)
	StartMetricsServer(0)
}
