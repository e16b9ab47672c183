package enrich

import (
	"fmt"
	"strings"
)

// QAExhaustedError is returned when every attempt was rejected. It carries
// the last rejection reasons for the caller.
type QAExhaustedError struct {
	Attempts int
	Reasons  []string
}

func (e *QAExhaustedError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("enrichment not accepted after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("enrichment not accepted after %d attempts: %s", e.Attempts, strings.Join(e.Reasons, "; "))
}
