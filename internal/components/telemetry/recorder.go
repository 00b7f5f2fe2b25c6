package telemetry

import (
	"strings"
	"sync"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityWarning
	SeverityBroken
	SeverityCount
)

// Report is a single call made against a Recorder.
type Report struct {
	Severity Severity
	Id       string
	Params   []any
}

// Recorder implements API by keeping every report in memory, it is meant for
// tests that need to assert on the diagnostics a component produced.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) push(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push(Report{Severity: SeverityBroken, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push(Report{Severity: SeverityWarning, Id: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.push(Report{Severity: SeverityDebug, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push(Report{Severity: SeverityCount, Id: id, Params: []any{count}})
}

// Reports returns a copy of all reports of the given severity whose id
// ends with suffix ("" matches everything).
func (r *Recorder) Reports(severity Severity, suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Severity != severity {
			continue
		}
		if !strings.HasSuffix(report.Id, suffix) {
			continue
		}
		out = append(out, report)
	}
	return out
}
