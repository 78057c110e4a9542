package export

import "fmt"

// ExternalAPIError is returned when an external system responds with an
// unexpected status. It carries the remote status and body for the audit
// log; it never propagates past the orchestrator's per-item isolation.
type ExternalAPIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}
