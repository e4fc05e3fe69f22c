package domain

import "github.com/cockroachdb/errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrSoldOut           = errors.New("sold out")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidRequest    = errors.New("invalid request")
)
