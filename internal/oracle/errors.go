package oracle

import "fmt"

// Error kinds. Schema covers output the provider returned but callers could
// not validate; transport covers everything on the way there and back.
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindSchema    = "schema"
)

// Error is the failure type for oracle calls.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s error", e.Kind)
	}
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as an oracle error of the given kind.
func NewError(kind string, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
