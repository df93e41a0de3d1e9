// pkg/utils/reporter.go - progress sink shared by the downloader and the pipeline

package utils

// Reporter receives short human-readable progress updates. Message carries
// phase transitions, Detail carries sub-phase text such as byte counts.
type Reporter interface {
	Message(txt string)
	Detail(txt string)
	Percent(pct int) // -1 = indeterminate
}

// NoOpReporter implements Reporter but does nothing (for headless operation)
type NoOpReporter struct{}

func NewNoOpReporter() Reporter {
	return &NoOpReporter{}
}

func (r *NoOpReporter) Message(txt string) {}
func (r *NoOpReporter) Detail(txt string)  {}
func (r *NoOpReporter) Percent(pct int)    {}
