package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Slug lowercases a label and collapses every run of non-alphanumerics into a
// single dash, so a human label becomes a safe filename component.
func Slug(label string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ArtifactName is a pure function of tool, label and invocation time:
// <tool>-<slug>-<timestamp>.log.txt.
func ArtifactName(tool, label string, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%s.log.txt", tool, Slug(label), ts.Format("20060102-150405"))
}

// Artifact is a run's result log. Lines are appended as sub-tests complete;
// nothing is ever rewritten.
type Artifact struct {
	Path string
	file *os.File
}

func CreateArtifact(dir, tool, label string, ts time.Time) (*Artifact, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ArtifactName(tool, label, ts))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Artifact{Path: path, file: file}, nil
}

func (a *Artifact) Section(title string) error {
	_, err := fmt.Fprintf(a.file, "=== %s ===\n", title)
	return err
}

func (a *Artifact) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(a.file, line); err != nil {
			return err
		}
	}
	return nil
}

func (a *Artifact) Close() error {
	return a.file.Close()
}
