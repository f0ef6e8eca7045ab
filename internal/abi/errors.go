package abi

import "fmt"

// ErrorKind categorizes ABI parsing failures.
type ErrorKind int

const (
	// KindSchema - an entry is missing required fields or has an unknown type
	KindSchema ErrorKind = iota
	// KindDuplicateName - a name is used twice within one namespace
	KindDuplicateName
	// KindUnknownType - a type string names a type that is never defined
	KindUnknownType
	// KindCyclicType - composite types reference each other in a cycle
	KindCyclicType
	// KindCardinality - more than one constructor or l1 handler
	KindCardinality
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindDuplicateName:
		return "duplicate name"
	case KindUnknownType:
		return "unknown type"
	case KindCyclicType:
		return "cyclic type"
	case KindCardinality:
		return "cardinality"
	default:
		return "unknown"
	}
}

// Error is returned for every rejected ABI. Callers that only need the
// message can print it; callers that need the category use errors.Is against
// the Err* sentinels or errors.As to read Kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrSchema        = &Error{Kind: KindSchema, Message: "invalid abi entry"}
	ErrDuplicateName = &Error{Kind: KindDuplicateName, Message: "duplicate name"}
	ErrUnknownType   = &Error{Kind: KindUnknownType, Message: "unknown type"}
	ErrCyclicType    = &Error{Kind: KindCyclicType, Message: "cyclic type"}
	ErrCardinality   = &Error{Kind: KindCardinality, Message: "cardinality violated"}
)

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func duplicateName(name, namespace string) *Error {
	return newError(KindDuplicateName, nil, "Name '%s' was used more than once in %s.", name, namespace)
}

func schemaError(format string, args ...any) *Error {
	return newError(KindSchema, nil, format, args...)
}
