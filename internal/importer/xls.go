package importer

import (
	"fmt"
	"io"
	"os"

	"github.com/shakinm/xlsReader/xls"
)

// XLSReader reads the first sheet of a legacy BIFF8 workbook.
type XLSReader struct{}

// Format returns the reader name.
func (x *XLSReader) Format() string { return "xls" }

// Extensions returns the handled file extensions.
func (x *XLSReader) Extensions() []string { return []string{".xls"} }

// Read spools r to a temporary file; the xls decoder needs a path.
func (x *XLSReader) Read(r io.Reader) ([][]string, error) {
	tmp, err := os.CreateTemp("", "txsift-*.xls")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spooling workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spooling workbook: %w", err)
	}

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, col := range row.GetCols() {
			cells = append(cells, col.GetString())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
