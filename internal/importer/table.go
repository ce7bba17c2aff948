package importer

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/txsift/internal/model"
)

const bom = "\ufeff"

func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, bom))
}

// buildTable turns raw rows into a rectangular table. The first row is the
// header; blank headers are named "Unnamed: <i>" and repeated names get a
// ".<n>" suffix. Fully blank data rows are dropped, short rows padded and
// long rows truncated to the header width.
func buildTable(rows [][]string) (*model.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := rows[0]
	cols := make([]string, len(header))
	named := false
	for i, h := range header {
		h = cleanCell(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		} else {
			named = true
		}
		cols[i] = h
	}
	if !named {
		return nil, fmt.Errorf("header row is empty")
	}
	dedupeColumns(cols)

	t := &model.Table{Columns: cols}
	for _, raw := range rows[1:] {
		row := make([]string, len(cols))
		blank := true
		for i := range row {
			if i < len(raw) {
				row[i] = cleanCell(raw[i])
			}
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// dedupeColumns renames repeated headers in place: Desc, Desc.1, Desc.2.
// A suffixed name that is already taken is skipped.
func dedupeColumns(cols []string) {
	used := make(map[string]bool, len(cols))
	for _, c := range cols {
		used[c] = true
	}
	counts := make(map[string]int, len(cols))
	for i, c := range cols {
		n := counts[c]
		counts[c] = n + 1
		if n == 0 {
			continue
		}
		name := fmt.Sprintf("%s.%d", c, n)
		for used[name] {
			n++
			name = fmt.Sprintf("%s.%d", c, n)
		}
		counts[c] = n + 1
		used[name] = true
		cols[i] = name
	}
}
