package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the table with internal header names. Cells are written as
// they were read.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, 0, 5+len(d.extra))
	for i := range d.matches {
		row = row[:0]
		row = append(row, d.raw[i][:]...)
		for _, c := range d.extra {
			row = append(row, c.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
