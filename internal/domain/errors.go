package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound signals a missing catalog record.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound signals an unknown or expired search session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidFilter signals an unknown filter key.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRecord signals a malformed catalog record.
	ErrInvalidRecord = errors.New("invalid catalog record")

	// ErrSearchAborted signals a search that was superseded or cancelled by its caller.
	// Callers discard it silently.
	ErrSearchAborted = errors.New("search aborted")
	// ErrSearchFailed signals a transport, timeout or server failure during search.
	ErrSearchFailed = errors.New("search failed")
	// ErrDeserializationFailed signals a corrupt cached value.
	ErrDeserializationFailed = errors.New("deserialization failed")
)

// GenericFailureMessage is shown to users when a search fails.
const GenericFailureMessage = "Something went wrong"

// TransportError is a normalized failure of the remote search backend.
// StatusCode is zero when no response was received.
type TransportError struct {
	Message    string
	StatusCode int
	Errors     map[string][]string
}

func (e *TransportError) Error() string {
	var b strings.Builder
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "transport error %d: %s", e.StatusCode, e.Message)
	} else {
		fmt.Fprintf(&b, "transport error: %s", e.Message)
	}
	if len(e.Errors) > 0 {
		fields := make([]string, 0, len(e.Errors))
		for f := range e.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(fields, ", "))
	}
	return b.String()
}
