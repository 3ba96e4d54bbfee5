package participations

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no participation matches the requested id.
	ErrNotFound = errors.New("participation not found")

	// ErrMalformedPayload is returned when the data column cannot be decoded.
	ErrMalformedPayload = errors.New("malformed participation payload")
)
