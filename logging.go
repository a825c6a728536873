package fixtures

import "time"

// LogEvent describes one fixture operation for logging. Field, Engine, and
// Expr are populated for field-resolver evaluations only.
type LogEvent struct {
	Op       string
	Fixture  string
	Field    string
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// Log operation names.
const (
	OpResolve = "resolve"
	OpField   = "field"
	OpLoad    = "load"
	OpUnload  = "unload"
	OpSkip    = "skip"
)

// Logger records fixture events. Implementations must not assume events
// arrive in any particular order across fixtures.
type Logger interface {
	Log(LogEvent)
}

// LogFunc adapts a function to Logger.
type LogFunc func(LogEvent)

// Log implements Logger.
func (f LogFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}
