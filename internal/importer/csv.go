package importer

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVReader reads comma-separated files with a header row.
type CSVReader struct{}

// Format returns the reader name.
func (c *CSVReader) Format() string { return "csv" }

// Extensions returns the handled file extensions.
func (c *CSVReader) Extensions() []string { return []string{".csv"} }

// Read returns every record; rows may differ in length.
func (c *CSVReader) Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return records, nil
}
