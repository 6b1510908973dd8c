package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaCycle matches every *SchemaCycleError.
	ErrSchemaCycle = errors.New("schema cycle")
	// ErrUnresolvedReference matches every *UnresolvedReferenceError.
	ErrUnresolvedReference = errors.New("unresolved schema reference")
)

// SchemaCycleError reports a reference that points back into its own
// expansion chain, or nesting deeper than the resolver's bound.
type SchemaCycleError struct {
	Ref           string
	Chain         []string
	Depth         int
	DepthExceeded bool
}

func (e *SchemaCycleError) Error() string {
	if e.DepthExceeded {
		return fmt.Sprintf("schema nesting exceeds depth %d (via %s)", e.Depth-1, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("schema cycle at depth %d: %s -> %s", e.Depth, strings.Join(e.Chain, " -> "), e.Ref)
}

func (e *SchemaCycleError) Is(target error) bool {
	return target == ErrSchemaCycle
}

// UnresolvedReferenceError reports a $ref whose target is not in the
// component table. It is tolerated: the reference is left in place as an
// opaque node.
type UnresolvedReferenceError struct {
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved schema reference %q", e.Ref)
}

func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}
