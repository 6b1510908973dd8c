package requester

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrMissingParameter matches every *MissingParameterError.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrTimeout matches an *InvocationError caused by a deadline.
	ErrTimeout = errors.New("request timed out")
)

// MissingParameterError reports path placeholders left unsubstituted. The
// request is never sent.
type MissingParameterError struct {
	Tool  string
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("tool %s: missing required path parameter(s): %s", e.Tool, strings.Join(e.Names, ", "))
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// InvocationError wraps a transport failure: the target API produced no
// HTTP response at all.
type InvocationError struct {
	Tool    string
	Cause   error
	Timeout bool
}

func (e *InvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("tool %s: request timed out: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("tool %s: request failed: %v", e.Tool, e.Cause)
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

func (e *InvocationError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

func newInvocationError(tool string, cause error) *InvocationError {
	return &InvocationError{Tool: tool, Cause: cause, Timeout: isTimeout(cause)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
