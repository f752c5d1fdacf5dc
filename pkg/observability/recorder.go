package observability

import "time"

// Recorder receives validation measurements
type Recorder interface {
	RunFinished(status string, d time.Duration)
	ProbeFinished(probe string, passed bool, d time.Duration)
	ProbeRetried(probe string)
	ExceptionDecision(verdict string)
	CatalogLookup(hit bool)
}

// NopRecorder discards every measurement
type NopRecorder struct{}

func (NopRecorder) RunFinished(string, time.Duration)         {}
func (NopRecorder) ProbeFinished(string, bool, time.Duration) {}
func (NopRecorder) ProbeRetried(string)                       {}
func (NopRecorder) ExceptionDecision(string)                  {}
func (NopRecorder) CatalogLookup(bool)                        {}

// MultiRecorder fans measurements out to several recorders
type MultiRecorder []Recorder

func (m MultiRecorder) RunFinished(status string, d time.Duration) {
	for _, r := range m {
		r.RunFinished(status, d)
	}
}

func (m MultiRecorder) ProbeFinished(probe string, passed bool, d time.Duration) {
	for _, r := range m {
		r.ProbeFinished(probe, passed, d)
	}
}

func (m MultiRecorder) ProbeRetried(probe string) {
	for _, r := range m {
		r.ProbeRetried(probe)
	}
}

func (m MultiRecorder) ExceptionDecision(verdict string) {
	for _, r := range m {
		r.ExceptionDecision(verdict)
	}
}

func (m MultiRecorder) CatalogLookup(hit bool) {
	for _, r := range m {
		r.CatalogLookup(hit)
	}
}
