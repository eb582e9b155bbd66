package sentinel

import "errors"

// Sentinel errors for store-level facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors:
//   - ErrNotFound: no record under the key
//   - ErrAlreadyExists: a record already exists under the key
//   - ErrConflict: a write raced another writer (log height mismatch)
//   - ErrUnavailable: backing service cannot be reached
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
)
