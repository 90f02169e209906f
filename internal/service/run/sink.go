package run

import (
	"sync"
	"time"

	"github.com/eh8/acstor/internal/report"
)

// lazyArtifact opens the result log on the first completed sub-test, so a
// run whose benchmark invocations all fail leaves no artifact on disk.
type lazyArtifact struct {
	dir   string
	tool  string
	label string
	ts    time.Time

	mu       sync.Mutex
	artifact *report.Artifact
}

func newLazyArtifact(dir, tool, label string, ts time.Time) *lazyArtifact {
	return &lazyArtifact{dir: dir, tool: tool, label: label, ts: ts}
}

func (l *lazyArtifact) Append(section string, lines []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.artifact == nil {
		artifact, err := report.CreateArtifact(l.dir, l.tool, l.label, l.ts)
		if err != nil {
			return err
		}
		l.artifact = artifact
	}
	if err := l.artifact.Section(section); err != nil {
		return err
	}
	return l.artifact.WriteLines(lines)
}

// Path returns the artifact path, empty when nothing was recorded.
func (l *lazyArtifact) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.artifact == nil {
		return ""
	}
	return l.artifact.Path
}

func (l *lazyArtifact) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.artifact == nil {
		return nil
	}
	return l.artifact.Close()
}
