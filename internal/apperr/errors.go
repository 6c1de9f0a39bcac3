package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrLedgerMissing     = errors.New("ledger missing")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidPath       = errors.New("invalid path")
)
