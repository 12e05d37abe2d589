package domain

import (
	"errors"
	"fmt"
)

// Kind classifies why a request could not be served
type Kind int

const (
	KindUnknown Kind = iota
	KindInputUnreadable
	KindTranscodeFailed
	KindRecognitionUnavailable
	KindCompletionUnavailable
	KindSynthesisFailed
	KindLocalIO
)

// String returns the wire name of the kind, as reported in error_kind fields
func (k Kind) String() string {
	switch k {
	case KindInputUnreadable:
		return "InputUnreadable"
	case KindTranscodeFailed:
		return "TranscodeFailed"
	case KindRecognitionUnavailable:
		return "RecognitionUnavailable"
	case KindCompletionUnavailable:
		return "CompletionUnavailable"
	case KindSynthesisFailed:
		return "SynthesisFailed"
	case KindLocalIO:
		return "LocalIOError"
	default:
		return "Unknown"
	}
}

// ErrUnintelligible is returned by recognizers when the audio was processed
// but no speech could be recognized in it
var ErrUnintelligible = errors.New("speech could not be understood")

// Error is a classified failure of one operation
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err as a failure of op with the given kind. If err already carries
// a kind, that (inner) kind is kept. E returns nil for a nil err.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if inner := KindOf(err); inner != KindUnknown {
		kind = inner
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted cause
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the outermost classified error in err's chain
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Detail returns the message of the root cause, without the operation
// prefixes added by Error values along the chain
func Detail(err error) string {
	if err == nil {
		return ""
	}
	for {
		de, ok := err.(*Error)
		if !ok {
			return err.Error()
		}
		err = de.Err
	}
}
