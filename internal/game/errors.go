package game

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	// KindNotFound means a session, object, card, deck or indicator id did not resolve.
	KindNotFound ErrorKind = iota + 1
	// KindInvalidMetadata means required action fields were missing or malformed.
	KindInvalidMetadata
	// KindInvalidState means the request is well formed but the table does not allow it.
	KindInvalidState
	// KindUpstream means the store failed.
	KindUpstream
)

var kindNames = map[ErrorKind]string{
	KindNotFound:        "NOT_FOUND",
	KindInvalidMetadata: "INVALID_METADATA",
	KindInvalidState:    "INVALID_STATE",
	KindUpstream:        "UPSTREAM",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// Sentinel errors for errors.Is checks against a kind.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidMetadata = &Error{Kind: KindInvalidMetadata}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

// Error is the engine error type.
type Error struct {
	Kind    ErrorKind
	Op      string // operation or action kind that failed
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind of err, or 0 when err is not an engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func notFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidMetadata(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidMetadata, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidState(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Op: op, Message: fmt.Sprintf(format, args...)}
}

// storeError wraps a store failure. pgx.ErrNoRows and errors that already carry
// a kind keep their meaning, everything else becomes Upstream.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}
