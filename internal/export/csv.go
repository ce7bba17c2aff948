package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes s with its header row.
func WriteCSV(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(s.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	rec := make([]string, len(s.Columns))
	for i, row := range s.Rows {
		for c := range rec {
			rec[c] = ""
			if c < len(row) {
				rec[c] = CellString(row[c])
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
