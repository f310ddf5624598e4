// Package oracle is the language-model boundary. Everything that comes
// back through it is untyped JSON; callers re-validate every field with
// the decoders in this package instead of trusting the declared schema.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Document is an inline attachment sent alongside a prompt, typically the
// source statement PDF or a page image.
type Document struct {
	MIMEType string
	Data     []byte
}

// Oracle issues a single model call and returns the decoded JSON value.
// Implementations perform no retries; a transport or timeout failure is
// returned wrapped in ErrUnavailable and the caller decides what to do.
type Oracle interface {
	GenerateJSON(ctx context.Context, prompt string, doc *Document) (any, error)
}

// ErrUnavailable marks transport-level oracle failures: timeouts, non-2xx
// responses, connection errors. It is distinct from SchemaError, where the
// oracle did respond but the response is unusable.
var ErrUnavailable = errors.New("oracle unavailable")

// SchemaError reports an oracle response that was received but does not
// have the expected shape. Whole-response schema errors fail the request;
// per-row ones are repaired locally by the caller.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "oracle response schema mismatch: " + e.Reason
}

// Unavailable wraps err as an ErrUnavailable failure.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
