package columns

import "strings"

// Role is the part a column plays in the pipeline.
type Role string

const (
	RoleDescription Role = "description"
	RoleReference   Role = "reference"
	RoleCredit      Role = "credit"
)

// Roles lists every role in assignment order.
var Roles = []Role{RoleDescription, RoleReference, RoleCredit}

// KeywordSet is an ordered, immutable list of header substrings that
// identify one role. Matching is case-insensitive.
type KeywordSet struct {
	keywords []string
	lowered  []string
}

// NewKeywordSet builds a set from keywords. Blank entries are dropped and
// case-insensitive duplicates keep their first spelling.
func NewKeywordSet(keywords ...string) KeywordSet {
	var ks KeywordSet
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		low := strings.ToLower(k)
		if seen[low] {
			continue
		}
		seen[low] = true
		ks.keywords = append(ks.keywords, k)
		ks.lowered = append(ks.lowered, low)
	}
	return ks
}

// Keywords returns a copy of the keywords in their original spelling.
func (k KeywordSet) Keywords() []string {
	out := make([]string, len(k.keywords))
	copy(out, k.keywords)
	return out
}

// Len returns the number of distinct keywords.
func (k KeywordSet) Len() int { return len(k.keywords) }

// Matches reports whether some keyword occurs in header, ignoring case.
func (k KeywordSet) Matches(header string) bool {
	h := strings.ToLower(header)
	for _, kw := range k.lowered {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}

// MatchesExactly reports whether header equals some keyword, ignoring case
// and surrounding whitespace.
func (k KeywordSet) MatchesExactly(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, kw := range k.lowered {
		if h == kw {
			return true
		}
	}
	return false
}

// KeywordSets groups the keyword set of every role.
type KeywordSets struct {
	Description KeywordSet
	Reference   KeywordSet
	Credit      KeywordSet
}

// For returns the set for role.
func (s KeywordSets) For(role Role) KeywordSet {
	switch role {
	case RoleDescription:
		return s.Description
	case RoleReference:
		return s.Reference
	case RoleCredit:
		return s.Credit
	default:
		return KeywordSet{}
	}
}
