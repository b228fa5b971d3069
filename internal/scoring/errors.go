package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCandidates is returned when Score is called with an empty candidate set.
var ErrNoCandidates = errors.New("candidate set is empty")

// FieldIssue describes one invalid input field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError carries field-level issues for malformed caller input.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Issue))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
