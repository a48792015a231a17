package payload

import (
	"fmt"

	"github.com/cleared-dev/fidash/internal/model"
)

// ValidationError describes one piece of a tool payload that did not match its schema.
// Validation errors never abort aggregation; the offending part is left out.
type ValidationError struct {
	Tool   model.Tool `json:"tool"`
	Path   string     `json:"path,omitempty"` // e.g. "bankTransactions[0].txns[3]"
	Reason string     `json:"reason"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Tool, e.Path, e.Reason)
}
