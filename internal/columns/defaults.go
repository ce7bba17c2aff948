package columns

// DefaultKeywordSets returns the built-in header keywords for each role.
// The lists overlap ("cr" is a substring of "Description"); Assign resolves
// the credit column with that in mind.
func DefaultKeywordSets() KeywordSets {
	return KeywordSets{
		Description: NewKeywordSet(DefaultDescriptionKeywords...),
		Reference:   NewKeywordSet(DefaultReferenceKeywords...),
		Credit:      NewKeywordSet(DefaultCreditKeywords...),
	}
}

// DefaultDescriptionKeywords identify narrative columns.
var DefaultDescriptionKeywords = []string{
	"descri", "Description", "Desc", "Descr", "Trans Description", "Transaction Desc",
}

// DefaultReferenceKeywords identify reference-number columns.
var DefaultReferenceKeywords = []string{
	"Ref_No", "Reference Number", "Ref Num", "Transaction ID",
}

// DefaultCreditKeywords identify the credited amount column.
var DefaultCreditKeywords = []string{
	"credit", "cr", "Deposit", "Amount Credited",
}
