package ports

import "errors"

var (
	// ErrNotFound is returned for dictionary keys nothing is known about.
	ErrNotFound = errors.New("dictionary not found")

	// ErrInvalid marks errors caused by bad caller input rather than a fault
	// in the service.
	ErrInvalid = errors.New("invalid request")
)
