package columns

// Match returns the names in columns whose header contains any keyword of
// set, ignoring case. Names keep their original spelling and table order.
// No match yields an empty result.
func Match(columns []string, set KeywordSet) []string {
	var out []string
	for _, i := range MatchIndices(columns, set) {
		out = append(out, columns[i])
	}
	return out
}

// MatchIndices is Match returning column positions.
func MatchIndices(columns []string, set KeywordSet) []int {
	var out []int
	for i, c := range columns {
		if set.Matches(c) {
			out = append(out, i)
		}
	}
	return out
}

// Assignment maps roles to column positions for one table.
type Assignment struct {
	Description []int
	Reference   []int
	Credit      int // -1 when no column qualifies
}

// Usable reports whether the table can be classified: it needs at least one
// description column and one reference column.
func (a Assignment) Usable() bool {
	return len(a.Description) > 0 && len(a.Reference) > 0
}

// Names resolves the positions assigned to role against columns.
func (a Assignment) Names(columns []string, role Role) []string {
	var idx []int
	switch role {
	case RoleDescription:
		idx = a.Description
	case RoleReference:
		idx = a.Reference
	case RoleCredit:
		if a.Credit >= 0 {
			idx = []int{a.Credit}
		}
	}
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		names = append(names, columns[i])
	}
	return names
}

// Assign matches every role against columns. Description and reference take
// every matching column. Credit takes a single column: the first header that
// equals a credit keyword, else the first substring match not already used as
// description or reference, else the first substring match.
func Assign(columns []string, sets KeywordSets) Assignment {
	a := Assignment{
		Description: MatchIndices(columns, sets.Description),
		Reference:   MatchIndices(columns, sets.Reference),
		Credit:      -1,
	}

	for i, c := range columns {
		if sets.Credit.MatchesExactly(c) {
			a.Credit = i
			return a
		}
	}

	used := make(map[int]bool, len(a.Description)+len(a.Reference))
	for _, i := range a.Description {
		used[i] = true
	}
	for _, i := range a.Reference {
		used[i] = true
	}

	candidates := MatchIndices(columns, sets.Credit)
	for _, i := range candidates {
		if !used[i] {
			a.Credit = i
			return a
		}
	}
	if len(candidates) > 0 {
		a.Credit = candidates[0]
	}
	return a
}
