package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every terminal failure of a render invocation.
type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindDecode            ErrorKind = "decode_error"
	KindInvalidConfig     ErrorKind = "invalid_config"
	KindEncoding          ErrorKind = "encoding_error"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat, Msg: "unsupported format"}
	ErrDecode            = &Error{Kind: KindDecode, Msg: "document could not be decoded"}
	ErrInvalidConfig     = &Error{Kind: KindInvalidConfig, Msg: "invalid configuration"}
	ErrEncoding          = &Error{Kind: KindEncoding, Msg: "image encoding failed"}
)

// Error is the single error type surfaced by the pipeline stages.
// Msg is safe to show to end users; Err keeps the internal cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func UnsupportedFormat(op, format string) error {
	return &Error{Kind: KindUnsupportedFormat, Op: op, Msg: fmt.Sprintf("unsupported format %q (expected pdf, docx, txt or csv)", format)}
}

func Decode(op, msg string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Msg: msg, Err: err}
}

func InvalidConfig(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidConfig, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Encoding(op, msg string, err error) error {
	return &Error{Kind: KindEncoding, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the user-facing part of err without internal causes.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return string(e.Kind)
	}
	return "internal error"
}
