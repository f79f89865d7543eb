package errmode

import "fmt"

// Mode selects the global error propagation policy.
type Mode string

const (
	// Operator absorbs known-recoverable errors and keeps going.
	Operator Mode = "operator"
	// Developer fails fast on anything unexpected.
	Developer Mode = "developer"
	// Diagnostic is Developer plus extra invariant assertions.
	Diagnostic Mode = "diagnostic"
)

// Config holds the error-handling mode configuration.
type Config struct {
	// Mode is the global error-handling mode (operator, developer, diagnostic).
	Mode string `mapstructure:"mode" default:"operator"`
}

// Parse validates the configured mode string.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Operator, Developer, Diagnostic:
		return Mode(s), nil
	case "":
		return Operator, nil
	default:
		return "", fmt.Errorf("unknown error mode %q (want operator, developer or diagnostic)", s)
	}
}

// FailFast reports whether unexpected conditions should abort instead of being logged.
func (m Mode) FailFast() bool {
	return m == Developer || m == Diagnostic
}

// Assertions reports whether extra invariant assertions should run.
func (m Mode) Assertions() bool {
	return m == Diagnostic
}
