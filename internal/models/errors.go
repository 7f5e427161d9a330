package models

import (
	"errors"
)

// Sentinel errors that the database callbacks translate driver errors into.
var (
	// ErrResourceNotFound is a prefix, the query callback appends the
	// name of the missing resource.
	ErrResourceNotFound = errors.New("there is no")

	// ErrGeneral masks database errors that users cannot act on. The
	// underlying error is logged for the server admins.
	ErrGeneral = errors.New("an error occurred on the server during your request")
)
