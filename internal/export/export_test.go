package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/txsift/internal/aggregate"
	"github.com/cleared-dev/txsift/internal/credit"
	"github.com/cleared-dev/txsift/internal/model"
)

func sampleLabeled() aggregate.LabeledTable {
	tbl := &model.Table{
		Name:    "bank.csv",
		Columns: []string{"Description", "Ref_No", "Credit"},
		Rows: [][]string{
			{"SALARY", "R1", "100"},
			{"ATM", "R2", "abc"},
			{"BONUS", "R3", "250.5"},
		},
	}
	return aggregate.LabeledTable{
		Table:        tbl,
		Labels:       []int{1, 0, 1},
		CreditColumn: 2,
		Credits:      credit.Coerce(tbl.Column(2)),
	}
}

func TestLabeledSheetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, LabeledSheet(sampleLabeled())))

	want := strings.Join([]string{
		"Description,Ref_No,Credit,Prediction",
		"SALARY,R1,100,1",
		"ATM,R2,,0",
		"BONUS,R3,250.5,1",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestResultSheetCSV(t *testing.T) {
	res, err := aggregate.Aggregate([]aggregate.FilteredTable{aggregate.Filter(sampleLabeled())})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ResultSheet(res, true)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Source File,Description,Ref_No,Credit,Prediction", lines[0])
	assert.Equal(t, "bank.csv,SALARY,R1,100,1", lines[1])
	assert.Equal(t, "bank.csv,BONUS,R3,250.5,1", lines[2])
}

func TestWriteXLSX(t *testing.T) {
	res, err := aggregate.Aggregate([]aggregate.FilteredTable{aggregate.Filter(sampleLabeled())})
	require.NoError(t, err)

	data, err := XLSXBytes(ResultSheet(res, false))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Description", "Ref_No", "Credit", "Prediction"}, rows[0])
	assert.Equal(t, []string{"SALARY", "R1", "100", "1"}, rows[1])
	assert.Equal(t, []string{"BONUS", "R3", "250.5", "1"}, rows[2])
}
