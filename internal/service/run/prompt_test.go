package run

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eh8/acstor/internal/manifest"
)

func TestPromptBackendValidChoice(t *testing.T) {
	var out bytes.Buffer
	backend, err := PromptBackend(strings.NewReader("3\n"), &out)
	if err != nil {
		t.Fatalf("PromptBackend failed: %v", err)
	}
	if backend != manifest.BackendAzureDisk {
		t.Fatalf("unexpected backend: %s", backend)
	}
	if !strings.Contains(out.String(), "azure-disk") {
		t.Fatalf("menu should list the backends, got %q", out.String())
	}
}

func TestPromptBackendRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	for _, input := range []string{"0\n", "9\n", "nvme\n", "\n"} {
		if _, err := PromptBackend(strings.NewReader(input), &out); err == nil {
			t.Fatalf("input %q should be rejected", input)
		}
	}
}
