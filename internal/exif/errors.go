package exif

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure so callers can branch on cause.
type Kind int

const (
	KindUnknown Kind = iota
	// KindFileNotFound: the tool reported that the target path does not exist.
	KindFileNotFound
	// KindToolInvocation: the tool could not be spawned or awaited.
	KindToolInvocation
	// KindDecode: captured output is not valid UTF-8.
	KindDecode
	// KindTag: a line yielded no tag token.
	KindTag
	// KindValue: a line yielded no value token.
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "file not found"
	case KindToolInvocation:
		return "tool invocation"
	case KindDecode:
		return "decode"
	case KindTag:
		return "tag"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrToolInvocation = errors.New("tool invocation failed")
	ErrDecode         = errors.New("output is not valid utf-8")
	ErrTag            = errors.New("no tag in line")
	ErrValue          = errors.New("no value in line")
)

func (k Kind) sentinel() error {
	switch k {
	case KindFileNotFound:
		return ErrFileNotFound
	case KindToolInvocation:
		return ErrToolInvocation
	case KindDecode:
		return ErrDecode
	case KindTag:
		return ErrTag
	case KindValue:
		return ErrValue
	}
	return nil
}

// Error is returned by every failing extraction call.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
