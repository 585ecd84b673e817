package pipeline

// Reporter receives human-readable progress and error notes as a run
// proceeds. The pipeline never prints directly; the CLI injects a reporter
// backed by its output helpers, and tests inject a no-op.
type Reporter interface {
	Stepf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopReporter discards all output.
type NopReporter struct{}

func (NopReporter) Stepf(string, ...any)  {}
func (NopReporter) Errorf(string, ...any) {}
