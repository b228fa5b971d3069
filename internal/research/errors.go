package research

import "errors"

var (
	// ErrUnknownCode is returned when the visa code is absent from the
	// catalog. Checked before any cache or store interaction.
	ErrUnknownCode = errors.New("unknown visa code")

	// ErrNoRecord is returned by repos when no research exists for a code.
	ErrNoRecord = errors.New("no research record")
)
