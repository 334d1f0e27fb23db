package descriptor

import "fmt"

// Severity of a diagnostic.
type Severity int

const (
	Hidden Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity name to its constant.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "hidden":
		return Hidden, nil
	case "info":
		return Info, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Hidden, fmt.Errorf("unknown severity %q", name)
	}
}
