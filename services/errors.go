package services

import "errors"

var (
	// ErrSourceNotFound means an input file of a stage does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrMissingColumns means an input file lacks columns the stage needs.
	ErrMissingColumns = errors.New("missing required columns")
)
