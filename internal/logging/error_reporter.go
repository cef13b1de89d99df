package logging

import (
	"sort"
	"sync"
	"time"
)

// ErrorCategory classifies a reported failure
type ErrorCategory string

const (
	ErrorCategoryAssetMissing  ErrorCategory = "asset_missing"
	ErrorCategoryReadError     ErrorCategory = "read_error"
	ErrorCategoryDeviceChannel ErrorCategory = "device_channel"
	ErrorCategoryNoMatch       ErrorCategory = "no_match"
	ErrorCategoryBattleStart   ErrorCategory = "battle_start"
	ErrorCategoryRecovery      ErrorCategory = "recovery"
	ErrorCategoryJournal       ErrorCategory = "journal"
)

// ErrorReport is a single reported failure
type ErrorReport struct {
	Timestamp   time.Time
	Category    ErrorCategory
	Component   string
	Message     string
	Error       error
	Context     map[string]interface{}
	Recoverable bool
}

// ErrorReporter logs failures and keeps a bounded history plus per-category
// counts for the end-of-run summary.
type ErrorReporter struct {
	logger     *Logger
	mu         sync.Mutex
	history    []*ErrorReport
	maxHistory int
	counts     map[ErrorCategory]int
	sinks      []func(*ErrorReport)
}

// NewErrorReporter creates a new error reporter writing through logger
func NewErrorReporter(logger *Logger) *ErrorReporter {
	return &ErrorReporter{
		logger:     logger.Component("ErrorReporter"),
		maxHistory: 200,
		counts:     make(map[ErrorCategory]int),
	}
}

// Report records and logs a failure
func (er *ErrorReporter) Report(report *ErrorReport) {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	context := map[string]interface{}{
		"category":  string(report.Category),
		"component": report.Component,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	if report.Recoverable {
		er.logger.WarnWithContext(report.Message, withError(context, report.Error))
	} else {
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	}

	er.mu.Lock()
	er.counts[report.Category]++
	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
	sinks := er.sinks
	er.mu.Unlock()

	for _, sink := range sinks {
		sink(report)
	}
}

// OnReport registers fn to receive every report after it is logged
func (er *ErrorReporter) OnReport(fn func(*ErrorReport)) {
	er.mu.Lock()
	defer er.mu.Unlock()
	er.sinks = append(er.sinks, fn)
}

// ReportError reports a recoverable failure
func (er *ErrorReporter) ReportError(category ErrorCategory, component, message string, err error) {
	er.Report(&ErrorReport{
		Category:    category,
		Component:   component,
		Message:     message,
		Error:       err,
		Recoverable: true,
	})
}

// ReportCriticalError reports a failure that ends the run
func (er *ErrorReporter) ReportCriticalError(category ErrorCategory, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:    category,
		Component:   component,
		Message:     message,
		Error:       err,
		Context:     context,
		Recoverable: false,
	})
}

// Count returns how many failures of a category were reported
func (er *ErrorReporter) Count(category ErrorCategory) int {
	er.mu.Lock()
	defer er.mu.Unlock()
	return er.counts[category]
}

// Counts returns a copy of the per-category counts, with categories sorted
// in the returned key slice.
func (er *ErrorReporter) Counts() ([]ErrorCategory, map[ErrorCategory]int) {
	er.mu.Lock()
	defer er.mu.Unlock()

	keys := make([]ErrorCategory, 0, len(er.counts))
	counts := make(map[ErrorCategory]int, len(er.counts))
	for k, v := range er.counts {
		keys = append(keys, k)
		counts[k] = v
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, counts
}

// GetRecentErrors returns the N most recent reports
func (er *ErrorReporter) GetRecentErrors(n int) []*ErrorReport {
	er.mu.Lock()
	defer er.mu.Unlock()

	if n > len(er.history) {
		n = len(er.history)
	}
	result := make([]*ErrorReport, n)
	copy(result, er.history[len(er.history)-n:])
	return result
}

func withError(context map[string]interface{}, err error) map[string]interface{} {
	if err != nil {
		context["error"] = err.Error()
	}
	return context
}
