package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error so callers can branch on the failure class
// instead of string matching.
type Kind string

const (
	// KindNotFound indicates a missing id, entry, or file.
	KindNotFound Kind = "not_found"
	// KindInvalid indicates malformed input: an unparseable script line,
	// an unreadable definition file, a bad rule literal.
	KindInvalid Kind = "invalid"
	// KindConflict indicates a duplicate identity or a declined overwrite.
	KindConflict Kind = "conflict"
	// KindIOFailure indicates a disk read or write error.
	KindIOFailure Kind = "io_failure"
)

// Error is the typed error carried through the application. ID and Path
// give the caller enough context to act on the failure.
type Error struct {
	Kind Kind
	// ID is the content id or entry the operation targeted, if any.
	ID string
	// Path is the filesystem path involved, if any.
	Path string
	// Msg is a human-readable description of what went wrong.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.ID != "" {
		fmt.Fprintf(&b, " (id: %s)", e.ID)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (path: %s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error for the given id.
func NotFound(id, msg string) *Error {
	return &Error{Kind: KindNotFound, ID: id, Msg: msg}
}

// Invalid builds a KindInvalid error.
func Invalid(msg string, err error) *Error {
	return &Error{Kind: KindInvalid, Msg: msg, Err: err}
}

// InvalidPath builds a KindInvalid error tied to a file.
func InvalidPath(path, msg string, err error) *Error {
	return &Error{Kind: KindInvalid, Path: path, Msg: msg, Err: err}
}

// Conflict builds a KindConflict error for the given id.
func Conflict(id, msg string) *Error {
	return &Error{Kind: KindConflict, ID: id, Msg: msg}
}

// IO builds a KindIOFailure error tied to a file.
func IO(path, msg string, err error) *Error {
	return &Error{Kind: KindIOFailure, Path: path, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain. Errors outside the
// taxonomy report KindIOFailure as the conservative default.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIOFailure
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error's kind to the response status the API uses.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ItemFailure records a single item's failure inside a batch operation.
type ItemFailure struct {
	// ID is the item that failed.
	ID string `json:"id"`
	// Reason is the human-readable failure description.
	Reason string `json:"reason"`
}

// BatchResult collects per-item outcomes of a batch operation. Batch
// operations never abort early; they record failures and continue.
type BatchResult struct {
	// Succeeded lists the ids that completed.
	Succeeded []string `json:"succeeded"`
	// Failed lists the ids that did not, with reasons.
	Failed []ItemFailure `json:"failed"`
}

// Ok records a successful item.
func (r *BatchResult) Ok(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

// Fail records a failed item.
func (r *BatchResult) Fail(id string, err error) {
	r.Failed = append(r.Failed, ItemFailure{ID: id, Reason: err.Error()})
}

// HasFailures reports whether any item failed.
func (r *BatchResult) HasFailures() bool { return len(r.Failed) > 0 }

// Summary renders a "installed 6 of 7" style line for user display.
func (r *BatchResult) Summary(verb string) string {
	total := len(r.Succeeded) + len(r.Failed)
	if len(r.Failed) == 0 {
		return fmt.Sprintf("%s %d of %d", verb, len(r.Succeeded), total)
	}
	reasons := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		reasons = append(reasons, fmt.Sprintf("%s: %s", f.ID, f.Reason))
	}
	return fmt.Sprintf("%s %d of %d, %d failed: %s",
		verb, len(r.Succeeded), total, len(r.Failed), strings.Join(reasons, "; "))
}
