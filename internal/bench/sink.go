package bench

// ResultSink receives extracted result lines as sub-tests complete. The run
// service backs it with a lazily created log artifact, so a run whose every
// invocation fails leaves no artifact behind.
type ResultSink interface {
	Append(section string, lines []string) error
}
