// Package gdreerr defines the closed error taxonomy shared by every gdre
// codec: Io, BadMagic, UnsupportedVersion, CorruptData, MissingKey, BadKey,
// BadMac, UnsupportedFormat, DependencyMissing, DepthExceeded and
// UnknownRevision, per the error handling design. Every public operation
// returns one of these wrapped in an *Error carrying a byte offset and a
// short structural breadcrumb.
package gdreerr

import "fmt"

// Kind is one of the closed set of error categories the core ever returns.
type Kind int

const (
	Io Kind = iota
	BadMagic
	UnsupportedVersion
	CorruptData
	MissingKey
	BadKey
	BadMac
	UnsupportedFormat
	DependencyMissing
	DepthExceeded
	UnknownRevision
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "Io"
	case BadMagic:
		return "BadMagic"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case CorruptData:
		return "CorruptData"
	case MissingKey:
		return "MissingKey"
	case BadKey:
		return "BadKey"
	case BadMac:
		return "BadMac"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case DependencyMissing:
		return "DependencyMissing"
	case DepthExceeded:
		return "DepthExceeded"
	case UnknownRevision:
		return "UnknownRevision"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every gdre package returns.
type Error struct {
	Kind       Kind
	Msg        string
	Offset     int64  // -1 when not applicable
	Breadcrumb string // e.g. "resource #3 · property 'transform' · NodePath subname #2"
	Err        error  // wrapped cause, if any
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Offset >= 0 {
		s = fmt.Sprintf("%s (offset %d)", s, e.Offset)
	}
	if e.Breadcrumb != "" {
		s = fmt.Sprintf("%s [%s]", s, e.Breadcrumb)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, gdreerr.BadMagic) style matching against a Kind
// wrapped in a sentinel-less *Error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an *Error with no offset/breadcrumb context.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Offset: -1}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Offset: -1, Err: err}
}

// At attaches a byte offset to an existing error (copy, not mutate).
func (e *Error) At(offset int64) *Error {
	n := *e
	n.Offset = offset
	return &n
}

// In attaches a structural breadcrumb to an existing error (copy, not mutate).
func (e *Error) In(breadcrumb string) *Error {
	n := *e
	if n.Breadcrumb == "" {
		n.Breadcrumb = breadcrumb
	} else {
		n.Breadcrumb = breadcrumb + " · " + n.Breadcrumb
	}
	return &n
}

// Sentinel kinds for errors.Is matching without constructing a full value.
var (
	ErrIo                 = &Error{Kind: Io, Offset: -1}
	ErrBadMagic           = &Error{Kind: BadMagic, Offset: -1}
	ErrUnsupportedVersion = &Error{Kind: UnsupportedVersion, Offset: -1}
	ErrCorruptData        = &Error{Kind: CorruptData, Offset: -1}
	ErrMissingKey         = &Error{Kind: MissingKey, Offset: -1}
	ErrBadKey             = &Error{Kind: BadKey, Offset: -1}
	ErrBadMac             = &Error{Kind: BadMac, Offset: -1}
	ErrUnsupportedFormat  = &Error{Kind: UnsupportedFormat, Offset: -1}
	ErrDependencyMissing  = &Error{Kind: DependencyMissing, Offset: -1}
	ErrDepthExceeded      = &Error{Kind: DepthExceeded, Offset: -1}
	ErrUnknownRevision    = &Error{Kind: UnknownRevision, Offset: -1}
)
