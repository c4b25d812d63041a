package capture

import (
	"errors"
	"fmt"
)

// Kind classifies why a capture failed.
type Kind int

const (
	KindBusUnavailable Kind = iota + 1
	KindPortalProtocolError
	KindPortalDenied
	KindPortalTimeout
	KindImageFetchError
	KindDirectCaptureUnavailable
)

var kindNames = map[Kind]string{
	KindBusUnavailable:           "bus_unavailable",
	KindPortalProtocolError:      "portal_protocol_error",
	KindPortalDenied:             "portal_denied",
	KindPortalTimeout:            "portal_timeout",
	KindImageFetchError:          "image_fetch_error",
	KindDirectCaptureUnavailable: "direct_capture_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the failure returned by every Capturer.
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrBusUnavailable           = &Error{Kind: KindBusUnavailable}
	ErrPortalProtocolError      = &Error{Kind: KindPortalProtocolError}
	ErrPortalDenied             = &Error{Kind: KindPortalDenied}
	ErrPortalTimeout            = &Error{Kind: KindPortalTimeout}
	ErrImageFetchError          = &Error{Kind: KindImageFetchError}
	ErrDirectCaptureUnavailable = &Error{Kind: KindDirectCaptureUnavailable}
)

// Fail wraps err in an *Error of the given kind.
func Fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Failf is Fail with a formatted cause.
func Failf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "capture: " + e.Kind.String()
	}
	return fmt.Sprintf("capture: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf extracts the failure kind from err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
