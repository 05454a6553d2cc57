package markup

import "errors"

var (
	ErrUnparseableDefinition = errors.New("markup: unparseable template definition")
	ErrInvalidDefinition     = errors.New("markup: invalid template definition")
)
