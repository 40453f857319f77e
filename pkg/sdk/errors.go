package medsearch

import "github.com/kailas-cloud/medsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrSessionNotFound = domain.ErrSessionNotFound
	ErrInvalidFilter   = domain.ErrInvalidFilter
	ErrSearchAborted   = domain.ErrSearchAborted
	ErrSearchFailed    = domain.ErrSearchFailed
)

// TransportError is a normalized failure of the remote catalog API.
type TransportError = domain.TransportError
