package run

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eh8/acstor/internal/manifest"
)

// PromptBackend asks the operator to pick a storage backend from a numbered
// list. Used when no --backend flag was given.
func PromptBackend(in io.Reader, out io.Writer) (manifest.Backend, error) {
	backends := manifest.Backends()
	fmt.Fprintln(out, "Select a storage backend:")
	for i, b := range backends {
		fmt.Fprintf(out, "  %d) %s\n", i+1, b)
	}
	fmt.Fprint(out, "Choice: ")

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read selection: %v", err)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(backends) {
		return "", fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return backends[choice-1], nil
}
