package statistics

import "errors"

var (
	ErrInsufficientGroups    = errors.New("at least two groups are required")
	ErrInsufficientData      = errors.New("not enough observations for the test")
	ErrDegenerateContingency = errors.New("contingency table has a zero expected frequency")
	ErrInvalidTable          = errors.New("contingency table rows must have equal length")
)
