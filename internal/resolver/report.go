package resolver

// Reporter receives recoverable diagnostics raised during resolution.
// The resolver never prints; callers decide how warnings surface.
type Reporter interface {
	// Warnf reports a recoverable condition.
	Warnf(format string, args ...any)
}

// NopReporter discards all diagnostics.
type NopReporter struct{}

// Warnf discards the diagnostic.
func (NopReporter) Warnf(string, ...any) {}
