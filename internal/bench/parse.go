package bench

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eh8/acstor/internal/report"
)

var (
	fioIOPSPattern    = regexp.MustCompile(`^\s*(read|write)\s*:\s*IOPS=.+`)
	fioIOPSValue      = regexp.MustCompile(`IOPS=([0-9.]+)([kM]?)`)
	fioLatencyPattern = regexp.MustCompile(`^\s*(s?lat|clat)\s*\((n|u|m)sec\):.*avg=.+`)

	pgbenchTPSPattern     = regexp.MustCompile(`^tps = ([0-9.]+)`)
	pgbenchLatencyPattern = regexp.MustCompile(`^latency average = ([0-9.]+) ms`)
)

// ExtractFioSummary pulls the IOPS/bandwidth and latency summary lines out of
// raw fio output. No IOPS line at all means the run produced garbage: the
// caller must not record anything.
func ExtractFioSummary(label, output string) (report.FioSummary, error) {
	summary := report.FioSummary{Label: label}
	for _, line := range strings.Split(output, "\n") {
		switch {
		case fioIOPSPattern.MatchString(line):
			trimmed := strings.TrimSpace(line)
			summary.IOPSLines = append(summary.IOPSLines, trimmed)
			if v, ok := iopsValue(trimmed); ok {
				if strings.HasPrefix(trimmed, "read") {
					summary.ReadIOPS = v
				} else {
					summary.WriteIOPS = v
				}
			}
		case fioLatencyPattern.MatchString(line):
			summary.LatencyLines = append(summary.LatencyLines, strings.TrimSpace(line))
		}
	}
	if len(summary.IOPSLines) == 0 {
		return report.FioSummary{}, fmt.Errorf("fio output for %s contains no summary lines", label)
	}
	return summary, nil
}

func iopsValue(line string) (float64, bool) {
	m := fioIOPSValue.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "k":
		v *= 1e3
	case "M":
		v *= 1e6
	}
	return v, true
}

// ExtractPgbenchSummary pulls TPS and latency out of pgbench output.
func ExtractPgbenchSummary(subTest, output string) (report.PgbenchSummary, error) {
	summary := report.PgbenchSummary{SubTest: subTest, TPS: -1, LatencyMS: -1}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if m := pgbenchTPSPattern.FindStringSubmatch(line); m != nil {
			tps, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				summary.TPS = tps
				summary.RawLines = append(summary.RawLines, line)
			}
			continue
		}
		if m := pgbenchLatencyPattern.FindStringSubmatch(line); m != nil {
			lat, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				summary.LatencyMS = lat
				summary.RawLines = append(summary.RawLines, line)
			}
		}
	}
	if summary.TPS < 0 {
		return report.PgbenchSummary{}, fmt.Errorf("pgbench output for %s contains no tps line", subTest)
	}
	return summary, nil
}
