package plumbing

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies failures of the stage and snapshot pipelines.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidPath
	KindIO
	KindStore
	KindCorruptIndex
	KindLockConflict
	KindMissingObject
	KindEmptyIndex
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidPath:
		return "invalid path"
	case KindIO:
		return "i/o error"
	case KindStore:
		return "object store error"
	case KindCorruptIndex:
		return "corrupt index"
	case KindLockConflict:
		return "lock conflict"
	case KindMissingObject:
		return "missing object"
	case KindEmptyIndex:
		return "empty index"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error carries the kind of a failure, the operation and path it happened
// on, and the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels, so errors.Is(err, ErrLockConflict) holds for
// every lock conflict regardless of path or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrInvalidPath   = &Error{Kind: KindInvalidPath}
	ErrIO            = &Error{Kind: KindIO}
	ErrStore         = &Error{Kind: KindStore}
	ErrCorruptIndex  = &Error{Kind: KindCorruptIndex}
	ErrLockConflict  = &Error{Kind: KindLockConflict}
	ErrMissingObject = &Error{Kind: KindMissingObject}
	ErrEmptyIndex    = &Error{Kind: KindEmptyIndex}
)

func newError(kind ErrorKind, op, path string, err error) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Path: path, Err: err})
}

// KindOf returns the kind of err, or 0 if err is not a pipeline error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
