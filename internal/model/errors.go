package model

import "errors"

// Ledger error taxonomy. Services wrap these with fmt.Errorf("%w: ...") and
// callers match with errors.Is.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrConcurrencyConflict  = errors.New("concurrency conflict")
	ErrItemNotFound         = errors.New("inventory item not found")
	ErrCatalogNotFound      = errors.New("catalog resource not found")
	ErrCatalogUnavailable   = errors.New("catalog unavailable")
	ErrExceptionNotApproved = errors.New("exception not approved")
)
