package render

import "errors"

var (
	ErrInvalidInput     = errors.New("render: invalid input")
	ErrMissingVariable  = errors.New("render: missing variable")
	ErrInvalidVariables = errors.New("render: variables do not satisfy schema")
)
