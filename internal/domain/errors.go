package domain

import "errors"

// ErrNotFound is returned when an update targets an activity id that is not
// in the collection. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by the store when user input fails a business
// rule (missing name, missing custom category, non-positive duration, bad date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrStorage is returned when the durable slot cannot be read or written.
// The in-memory collection stays authoritative when this is returned from a
// mutation.
var ErrStorage = errors.New("storage error")
