package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"iops":               "iops",
		"Premium SSD v2":     "premium-ssd-v2",
		"pgsql_azure--disk!": "pgsql-azure-disk",
		"  spaced  label ":   "spaced-label",
	}
	for input, want := range cases {
		if got := Slug(input); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestArtifactNameIsPureFunction(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	first := ArtifactName("acstor-fio", "iops", ts)
	second := ArtifactName("acstor-fio", "iops", ts)
	if first != second {
		t.Fatalf("expected identical names, got %q and %q", first, second)
	}
	if first != "acstor-fio-iops-20260830-120000.log.txt" {
		t.Fatalf("unexpected artifact name: %s", first)
	}
}

func TestArtifactAppends(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	artifact, err := CreateArtifact(dir, "acstor-pgbench", "pgsql", ts)
	if err != nil {
		t.Fatalf("CreateArtifact failed: %v", err)
	}
	if err := artifact.Section("pgbench read-only"); err != nil {
		t.Fatalf("Section failed: %v", err)
	}
	if err := artifact.WriteLines([]string{"tps = 1234.5"}); err != nil {
		t.Fatalf("WriteLines failed: %v", err)
	}
	if err := artifact.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "acstor-pgbench-pgsql-20260830-120000.log.txt"))
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "=== pgbench read-only ===") {
		t.Fatalf("missing section header: %s", content)
	}
	if !strings.Contains(content, "tps = 1234.5") {
		t.Fatalf("missing result line: %s", content)
	}
}
