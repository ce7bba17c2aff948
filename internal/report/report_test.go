package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txsift/internal/aggregate"
	"github.com/cleared-dev/txsift/internal/credit"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/model"
	"github.com/cleared-dev/txsift/internal/pipeline"
)

func doneRun(t *testing.T) *pipeline.Run {
	t.Helper()
	tbl := &model.Table{
		Name:    "bank.csv",
		Columns: []string{"Description", "Ref_No", "Credit"},
		Rows: [][]string{
			{"SALARY APRIL ACME LIMITED PAYROLL", "R1", "100"},
			{"BONUS", "R2", "250.5"},
		},
	}
	res, err := aggregate.Aggregate([]aggregate.FilteredTable{aggregate.Filter(aggregate.LabeledTable{
		Table:        tbl,
		Labels:       []int{1, 1},
		CreditColumn: 2,
		Credits:      credit.Coerce(tbl.Column(2)),
	})})
	require.NoError(t, err)
	return &pipeline.Run{
		ID:    "01JGZ5T1M4Q7K9X2B3C4D5E6F7",
		State: pipeline.StateDone,
		Files: []model.FileStatus{
			{Name: "bank.csv", Outcome: model.OutcomeLabeled, Description: []string{"Description"}, Reference: []string{"Ref_No"}, Credit: "Credit", Rows: 2, Positive: 2},
			{Name: "memo.csv", Outcome: model.OutcomeColumnsUnmatched, Error: "no reference column"},
		},
		Result:      res,
		ArtifactKey: "runs/01JGZ5T1M4Q7K9X2B3C4D5E6F7/merged_data.xlsx",
	}
}

func TestRenderDone(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doneRun(t), Options{MaxCellWidth: 12}))
	out := buf.String()

	assert.Contains(t, out, "Run 01JGZ5T1M4Q7K9X2B3C4D5E6F7")
	assert.Contains(t, out, "columns_unmatched")
	assert.Contains(t, out, "SALARY APRI…")
	assert.NotContains(t, out, "ACME LIMITED")
	assert.Contains(t, out, "250.5")
	assert.Contains(t, out, "Total credit: 350.50 (2 rows)")
	assert.Contains(t, out, "merged_data.xlsx")
	assert.NotContains(t, out, NoDataMessage)
}

func TestRenderMaxRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doneRun(t), Options{MaxRows: 1}))
	assert.Contains(t, buf.String(), "… 1 more rows")
	assert.NotContains(t, buf.String(), "BONUS")
}

func TestRenderNoData(t *testing.T) {
	run := &pipeline.Run{
		ID:    "01JGZ5T1M4Q7K9X2B3C4D5E6F7",
		State: pipeline.StateNoData,
		Files: []model.FileStatus{{Name: "memo.csv", Outcome: model.OutcomeColumnsUnmatched}},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, run, Options{}))
	assert.Contains(t, buf.String(), NoDataMessage)
	assert.NotContains(t, buf.String(), "Total credit")
}

func TestRuns(t *testing.T) {
	var buf bytes.Buffer
	err := Runs(&buf, []history.Record{{
		RunID:     "01JGZ5T1M4Q7K9X2B3C4D5E6F7",
		Timestamp: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		State:     history.StateDone,
		Rows:      2,
		Total:     decimal.RequireFromString("350.5"),
		Files:     []model.FileStatus{{Name: "bank.csv"}},
	}}, Options{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "01JGZ5T1M4Q7K9X2B3C4D5E6F7")
	assert.Contains(t, buf.String(), "350.50")
	assert.Contains(t, buf.String(), "done")
}
