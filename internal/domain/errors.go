package domain

import "errors"

// ErrNotFound is returned when a requested row does not exist in the remote
// store, or when the caller's row policy hides it — the two cases are
// indistinguishable to the client and are treated the same way.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule before any
// remote call is made (e.g. an empty split list on a budget expense).
var ErrValidation = errors.New("validation error")

// ErrUnavailable is returned when the remote store cannot be reached.
// Callers must treat it as retryable and keep previously loaded state.
var ErrUnavailable = errors.New("remote unavailable")

// ErrRejected is returned when the remote store refuses a write for
// authorization or integrity reasons. The optimistic local change is not
// rolled back; the next hydrate repairs any divergence.
var ErrRejected = errors.New("remote rejected")
