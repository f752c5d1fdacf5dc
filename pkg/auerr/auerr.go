// Package auerr is the error type every component operation returns.
//
// A native status code becomes an *Error whose Kind says what the caller can
// do about it. Only two kinds drive control flow in the validator:
// KindUninitialized (retry once with an initialized component) and
// KindUnauthorized (stop). The rest are plain failures.
package auerr

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/auval/pkg/native"
)

// Kind classifies a failure
type Kind int

const (
	// KindNative is a native failure with no special handling
	KindNative Kind = iota
	// KindPrecondition is a lifecycle misuse caught before reaching the component
	KindPrecondition
	// KindUninitialized means the operation needs an initialized component
	KindUninitialized
	// KindUnauthorized means the component refused to run on this machine
	KindUnauthorized
	// KindVariableSize is the variable-size sentinel, not a real failure
	KindVariableSize
	// KindNotInUse means the property exists but currently has no value
	KindNotInUse
	// KindNotFound means the identity did not resolve to an installed component
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindPrecondition:
		return "precondition"
	case KindUninitialized:
		return "uninitialized"
	case KindUnauthorized:
		return "unauthorized"
	case KindVariableSize:
		return "variable-size"
	case KindNotInUse:
		return "not-in-use"
	case KindNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified component failure
type Error struct {
	Kind Kind
	Code native.Code
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Code != native.NoErr:
		return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Code)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

// KindFor maps a native code to its kind
func KindFor(code native.Code) Kind {
	switch code {
	case native.ErrUninitialized:
		return KindUninitialized
	case native.ErrUnauthorized:
		return KindUnauthorized
	case native.CodeVariableSize:
		return KindVariableSize
	case native.ErrPropertyNotInUse:
		return KindNotInUse
	default:
		return KindNative
	}
}

// FromCode returns nil for NoErr and a classified *Error otherwise
func FromCode(op string, code native.Code) error {
	if code == native.NoErr {
		return nil
	}
	return &Error{Kind: KindFor(code), Code: code, Op: op}
}

// Precondition reports a lifecycle misuse
func Precondition(op, format string, args ...any) error {
	return &Error{Kind: KindPrecondition, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an identity that did not resolve
func NotFound(op string, id native.Identity) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("component %s not found", id)}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries an *Error of kind k
func Is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// CodeOf returns the native code carried by err, or NoErr
func CodeOf(err error) native.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return native.NoErr
}
