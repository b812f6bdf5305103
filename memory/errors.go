package memory

import "errors"

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrCapability        = errors.New("capability error")
	ErrStoreCorrupted    = errors.New("store corrupted")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateId       = errors.New("duplicate id")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrStoreHalted       = errors.New("store halted after failed flush")
)
