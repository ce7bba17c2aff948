// Package export renders labeled and merged tables as spreadsheets.
package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txsift/internal/aggregate"
)

// PredictionColumn is appended to every written table.
const PredictionColumn = "Prediction"

// SourceColumn names the originating file in merged output.
const SourceColumn = "Source File"

// MergedFileName is the download name of a merged result.
const MergedFileName = "merged_data.xlsx"

// Sheet is a table ready to write. Cells are string, int or decimal.Decimal;
// an empty string is a blank cell.
type Sheet struct {
	Columns []string
	Rows    [][]any
}

// LabeledSheet renders a whole labeled table: original cells, the coerced
// credit column and the predicted label per row.
func LabeledSheet(t aggregate.LabeledTable) Sheet {
	s := Sheet{Columns: append(append([]string{}, t.Table.Columns...), PredictionColumn)}
	for i, row := range t.Table.Rows {
		cells := make([]any, 0, len(row)+1)
		for c, v := range row {
			if c == t.CreditColumn && i < len(t.Credits) {
				cells = append(cells, creditCell(t.Credits[i]))
				continue
			}
			cells = append(cells, v)
		}
		label := 0
		if i < len(t.Labels) {
			label = t.Labels[i]
		}
		cells = append(cells, label)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// ResultSheet renders a merged result. withSource prefixes each row with
// its originating file name.
func ResultSheet(r *aggregate.Result, withSource bool) Sheet {
	var s Sheet
	if withSource {
		s.Columns = append(s.Columns, SourceColumn)
	}
	s.Columns = append(s.Columns, r.Columns...)
	s.Columns = append(s.Columns, PredictionColumn)

	for _, row := range r.Rows {
		cells := make([]any, 0, len(s.Columns))
		if withSource {
			cells = append(cells, row.Source)
		}
		for c, v := range row.Values {
			if c == row.CreditColumn {
				cells = append(cells, creditCell(row.Credit))
				continue
			}
			cells = append(cells, v)
		}
		cells = append(cells, row.Label)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

func creditCell(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal
}

// CellString formats a cell as text.
func CellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case decimal.Decimal:
		return c.String()
	default:
		return ""
	}
}
