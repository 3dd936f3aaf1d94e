package domain

import "errors"

var (
	errNoFiles              = errors.New("deposit submission: at least one file is required")
	errEmptyContentLocation = errors.New("deposit submission: file has empty content-location URL")
)
