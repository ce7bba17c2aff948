// Package features turns table rows into the text documents the classifier
// consumes.
package features

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/cleared-dev/txsift/internal/model"
)

// DefaultMissingToken stands in for an empty cell.
const DefaultMissingToken = "nan"

// Assembler builds one feature string per row.
type Assembler struct {
	missing string
}

// NewAssembler returns an Assembler that renders empty cells as missing.
// An empty missing falls back to DefaultMissingToken.
func NewAssembler(missing string) *Assembler {
	if missing == "" {
		missing = DefaultMissingToken
	}
	return &Assembler{missing: missing}
}

// MissingToken returns the token written for empty cells.
func (a *Assembler) MissingToken() string { return a.missing }

// Assemble returns len(t.Rows) strings. Each is the description cells joined
// by a space, one space, then the reference cells joined by a space, with
// columns taken in the order of desc and ref.
func (a *Assembler) Assemble(t *model.Table, desc, ref []int) []string {
	out := make([]string, len(t.Rows))
	var b strings.Builder
	for r, row := range t.Rows {
		b.Reset()
		a.join(&b, row, desc)
		b.WriteByte(' ')
		a.join(&b, row, ref)
		out[r] = b.String()
	}
	return out
}

func (a *Assembler) join(b *strings.Builder, row []string, idx []int) {
	for n, i := range idx {
		if n > 0 {
			b.WriteByte(' ')
		}
		var v string
		if i < len(row) {
			v = row[i]
		}
		b.WriteString(a.Cell(v))
	}
}

// Cell renders a single cell: NFKC-normalized with control characters
// replaced by spaces, or the missing token when blank.
func (a *Assembler) Cell(v string) string {
	if strings.TrimSpace(v) == "" {
		return a.missing
	}
	v = norm.NFKC.String(v)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v)
}
