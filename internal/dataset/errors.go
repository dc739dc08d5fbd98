package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound = errors.New("input file not found")
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyDataset  = errors.New("dataset has no records")
	ErrInvalidValue  = errors.New("invalid value")
)

// MissingColumnError lists the required columns absent from an input header.
type MissingColumnError struct {
	Columns []string
	Header  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s (header: %s)",
		ErrMissingColumn, strings.Join(e.Columns, ", "), strings.Join(e.Header, ", "))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}
