package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and decoders return these
// (optionally wrapped) so callers can branch on them with errors.Is.
//
//   - ErrNotFound: no record under the requested key
//   - ErrInvalidState: data exists but cannot be used as is
//   - ErrUnavailable: the backend could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
