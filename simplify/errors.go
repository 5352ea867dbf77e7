package simplify

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a mesh could not be simplified.
type ErrorKind int

// The failure classes of Simplify. None of them are retried.
const (
	EmptyMesh ErrorKind = iota + 1
	DegenerateGeometry
	NumericInstability
	UnsupportedPolicy
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyMesh:
		return "empty mesh"
	case DegenerateGeometry:
		return "degenerate geometry"
	case NumericInstability:
		return "numeric instability"
	case UnsupportedPolicy:
		return "unsupported policy"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error is the typed failure returned by the simplification engine.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Sentinels for use with errors.Is. Any *Error of the same kind matches.
var (
	ErrEmptyMesh          = &Error{Kind: EmptyMesh}
	ErrDegenerateGeometry = &Error{Kind: DegenerateGeometry}
	ErrNumericInstability = &Error{Kind: NumericInstability}
	ErrUnsupportedPolicy  = &Error{Kind: UnsupportedPolicy}
)

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var simplifyErr *Error
	if errors.As(err, &simplifyErr) {
		return simplifyErr.Kind, true
	}
	return 0, false
}
