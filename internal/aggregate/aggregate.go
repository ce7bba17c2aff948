// Package aggregate keeps the rows a classifier marked positive and merges
// them across files.
package aggregate

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txsift/internal/model"
)

// ErrNoData reports that no file contributed a positive row.
var ErrNoData = errors.New("no valid data found in uploaded files")

// PositiveLabel marks a row to keep.
const PositiveLabel = 1

// LabeledTable is a table with one predicted label per row and, when a
// credit column was found, the coerced credit amounts.
type LabeledTable struct {
	Table        *model.Table
	Labels       []int
	CreditColumn int                   // -1 when the table has none
	Credits      []decimal.NullDecimal // aligned to rows; nil without a credit column
}

// Row is a kept row. Values align to the column list of its table.
type Row struct {
	Source       string
	Values       []string
	Label        int
	CreditColumn int // position in Values, -1 when absent
	Credit       decimal.NullDecimal
}

// FilteredTable holds the positive rows of one file in original order.
type FilteredTable struct {
	Source  string
	Columns []string
	Rows    []Row
}

// Filter keeps exactly the rows labeled positive, in their original order.
func Filter(t LabeledTable) FilteredTable {
	out := FilteredTable{
		Source:  t.Table.Name,
		Columns: t.Table.Columns,
	}
	for i, row := range t.Table.Rows {
		if i >= len(t.Labels) || t.Labels[i] != PositiveLabel {
			continue
		}
		r := Row{
			Source:       t.Table.Name,
			Values:       row,
			Label:        t.Labels[i],
			CreditColumn: t.CreditColumn,
		}
		if t.CreditColumn >= 0 && i < len(t.Credits) {
			r.Credit = t.Credits[i]
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Result is the merged output of a run.
type Result struct {
	Columns []string // union of file columns, first-seen order
	Rows    []Row    // Values aligned to Columns
	Total   decimal.Decimal
}

// Accumulator collects filtered tables for a single run. It is not safe for
// concurrent use and must not be shared between runs.
type Accumulator struct {
	tables []FilteredTable
	rows   int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add appends a filtered table; files are merged in the order added.
func (a *Accumulator) Add(t FilteredTable) {
	a.tables = append(a.tables, t)
	a.rows += len(t.Rows)
}

// Rows returns the number of rows collected so far.
func (a *Accumulator) Rows() int { return a.rows }

// Result merges the collected tables. It returns ErrNoData when nothing
// was collected or every table is empty.
func (a *Accumulator) Result() (*Result, error) {
	return Aggregate(a.tables)
}

// columnKey identifies the n-th column of a table carrying a given name, so
// repeated header names keep separate output positions.
type columnKey struct {
	name string
	n    int
}

// Aggregate concatenates tables row-wise. Columns are the union in
// first-seen order; a row lacking a column gets an empty cell. Total sums
// the credit of every row, skipping missing values.
func Aggregate(tables []FilteredTable) (*Result, error) {
	res := &Result{Total: decimal.Zero}
	pos := make(map[columnKey]int)
	layouts := make([][]int, len(tables))
	rows := 0
	for ti, t := range tables {
		rows += len(t.Rows)
		seen := make(map[string]int, len(t.Columns))
		layout := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			k := columnKey{name: c, n: seen[c]}
			seen[c]++
			p, ok := pos[k]
			if !ok {
				p = len(res.Columns)
				pos[k] = p
				res.Columns = append(res.Columns, c)
			}
			layout[i] = p
		}
		layouts[ti] = layout
	}
	if rows == 0 {
		return nil, ErrNoData
	}

	for ti, t := range tables {
		layout := layouts[ti]
		for _, r := range t.Rows {
			values := make([]string, len(res.Columns))
			credit := -1
			for i, p := range layout {
				if i < len(r.Values) {
					values[p] = r.Values[i]
				}
				if i == r.CreditColumn {
					credit = p
				}
			}
			res.Rows = append(res.Rows, Row{
				Source:       r.Source,
				Values:       values,
				Label:        r.Label,
				CreditColumn: credit,
				Credit:       r.Credit,
			})
			if r.Credit.Valid {
				res.Total = res.Total.Add(r.Credit.Decimal)
			}
		}
	}
	return res, nil
}
