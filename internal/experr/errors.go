// Package experr defines the two error families of the experiment pipeline:
// ConfigError for problems in the author's configuration, and
// ProgrammingError for internal inconsistencies that indicate a defect.
package experr

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an invalid experiment configuration. It is raised only
// while loading and compiling, never during a live session.
type ConfigError struct {
	// Path is the location inside the Config Tree, e.g. "part 1 > audio 2 > filename".
	Path string
	// Origin is the source position when known, e.g. "experiment.hcl:14".
	Origin string
	Msg    string
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config error")
	if e.Origin != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Origin)
	}
	if e.Path != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Path)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// Configf builds a ConfigError with a formatted message.
func Configf(path, origin, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Origin: origin, Msg: fmt.Sprintf(format, args...)}
}

// ProgrammingError reports a broken internal invariant, such as a dangling
// screen pointer. It is never the participant's or the author's fault.
type ProgrammingError struct {
	Msg string
}

func (e *ProgrammingError) Error() string {
	return "programming error: " + e.Msg
}

// Programmingf builds a ProgrammingError with a formatted message.
func Programmingf(format string, args ...any) *ProgrammingError {
	return &ProgrammingError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err contains a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsProgramming reports whether err contains a ProgrammingError.
func IsProgramming(err error) bool {
	var pe *ProgrammingError
	return errors.As(err, &pe)
}

// Path joins Config Tree section names into the form used by ConfigError.Path.
func Path(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " > ")
}
