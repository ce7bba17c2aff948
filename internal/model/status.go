package model

// Outcome is what happened to one submitted file during a run.
type Outcome string

const (
	OutcomeLabeled              Outcome = "labeled"
	OutcomeUnreadable           Outcome = "unreadable"
	OutcomeColumnsUnmatched     Outcome = "columns_unmatched"
	OutcomeClassificationFailed Outcome = "classification_failed"
)

// Skipped reports whether the file was excluded from the aggregate.
func (o Outcome) Skipped() bool {
	return o != OutcomeLabeled
}

// FileStatus records how one file was handled, in submission order.
type FileStatus struct {
	Name        string   `json:"name"`
	Outcome     Outcome  `json:"outcome"`
	Description []string `json:"description_columns,omitempty"`
	Reference   []string `json:"reference_columns,omitempty"`
	Credit      string   `json:"credit_column,omitempty"`
	Rows        int      `json:"rows"`
	Positive    int      `json:"positive"`
	Error       string   `json:"error,omitempty"`
	ArtifactKey string   `json:"artifact,omitempty"` // labeled copy, when persisted
}
