// Package eventlog is the structured observer for detection and pool
// activity. Components receive a Logger by injection; there is no global
// logger and no global state. Events are typed records, capturable to
// CBOR streams for later replay.
package eventlog

// Logger receives detection events. Pass NoopLogger{} (or nil where a
// component accepts it) to disable logging.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent
	// use and must not block the detection path; queue or drop instead.
	Log(event Event)
}

// NoopLogger discards all events. Safe for concurrent use, usable as a
// zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger fans events out to several loggers in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger over the given loggers. Nil
// entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log forwards the event to every logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
