package manifest

import (
	"fmt"

	"github.com/eh8/acstor/internal/config"
)

// Backend selects which storage backs the benchmark volume. Chosen once per
// run; it determines the storage pool manifest and the VM family constraint.
type Backend string

const (
	BackendEphemeralNVMe    Backend = "ephemeral-nvme"
	BackendEphemeralTempSSD Backend = "ephemeral-temp-ssd"
	BackendAzureDisk        Backend = "azure-disk"
	BackendElasticSAN       Backend = "elastic-san"
	BackendPremiumSSDv2     Backend = "premium-ssd-v2"
)

var allBackends = []Backend{
	BackendEphemeralNVMe,
	BackendEphemeralTempSSD,
	BackendAzureDisk,
	BackendElasticSAN,
	BackendPremiumSSDv2,
}

func Backends() []Backend {
	out := make([]Backend, len(allBackends))
	copy(out, allBackends)
	return out
}

func ParseBackend(input string) (Backend, error) {
	for _, b := range allBackends {
		if string(b) == input {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown storage backend %q", input)
}

// PoolName is the StoragePool object name for this backend.
func (b Backend) PoolName() string {
	return "bench-" + string(b)
}

// UsesPool reports whether the backend is served by an Azure Container
// Storage pool. Premium SSD v2 goes straight through the Azure Disk CSI
// driver instead.
func (b Backend) UsesPool() bool {
	return b != BackendPremiumSSDv2
}

// StorageClassName is the class volumes for this backend request: the one
// Azure Container Storage generates for the pool, or the direct CSI class
// for Premium SSD v2.
func (b Backend) StorageClassName() string {
	if !b.UsesPool() {
		return "premium2-disk-sc"
	}
	return "acstor-" + b.PoolName()
}

// PoolTypeSpec returns the poolType block of the StoragePool spec.
func (b Backend) PoolTypeSpec() map[string]interface{} {
	switch b {
	case BackendEphemeralNVMe:
		return map[string]interface{}{
			"ephemeralDisk": map[string]interface{}{"diskType": "nvme"},
		}
	case BackendEphemeralTempSSD:
		return map[string]interface{}{
			"ephemeralDisk": map[string]interface{}{"diskType": "temp"},
		}
	case BackendAzureDisk:
		return map[string]interface{}{
			"azureDisk": map[string]interface{}{"skuName": "Premium_LRS"},
		}
	case BackendElasticSAN:
		return map[string]interface{}{
			"elasticSan": map[string]interface{}{},
		}
	default:
		return nil
	}
}

// VMSize returns the node VM size this backend needs. Local NVMe volumes only
// exist on the storage-optimized L-series.
func (b Backend) VMSize(cfg config.Config) string {
	if b == BackendEphemeralNVMe {
		return cfg.NVMeVMSize
	}
	return cfg.DefaultVMSize
}
