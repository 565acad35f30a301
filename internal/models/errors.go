package models

import "errors"

// Custom errors
var (
	ErrEmptySeries         = errors.New("price series is empty")
	ErrUnorderedSeries     = errors.New("timestamps must be strictly increasing")
	ErrInvalidPrice        = errors.New("price must be finite and positive")
	ErrVolumeMismatch      = errors.New("volume must be supplied for every point or none")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrSymbolRequired      = errors.New("instrument symbol is required")
)
