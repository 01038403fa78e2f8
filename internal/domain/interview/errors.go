package interview

import "errors"

var (
	ErrInterviewNotFound = errors.New("interview not found")
)
