package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped
// with the failing operation) and services translate them into domain errors:
//   - ErrNotFound: no row for the requested identifier or natural key
//   - ErrConflict: a unique constraint (natural key) rejected the write
//   - ErrInvalidState: a foreign key rejected the write or the delete
//   - ErrUnavailable: the backing store cannot be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
