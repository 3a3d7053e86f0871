package answerstore

import (
	"fmt"
	"strings"
	"time"
)

// AutoIDLayout formats participant ids in auto mode, e.g. "261017-0931".
const AutoIDLayout = "060102-1504"

// AutoID derives a participant id from a time.
func AutoID(t time.Time) string {
	return t.Format(AutoIDLayout)
}

// CheckID validates a typed participant id. The id names the output file,
// so it must be a single path segment.
func CheckID(pid string) (string, error) {
	pid = strings.TrimSpace(pid)
	switch {
	case pid == "":
		return "", fmt.Errorf("participant id cannot be empty")
	case pid == "." || pid == "..":
		return "", fmt.Errorf("participant id %q is not a valid file name", pid)
	case strings.ContainsAny(pid, `/\:*?"<>|`):
		return "", fmt.Errorf("participant id %q contains characters not allowed in file names", pid)
	}
	return pid, nil
}
