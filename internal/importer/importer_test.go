package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("../../testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadTable_CSV(t *testing.T) {
	r := DefaultRegistry()
	tbl, err := r.ReadTable("bank_statement.csv", readTestdata(t, "bank_statement.csv"))
	require.NoError(t, err)

	assert.Equal(t, "bank_statement.csv", tbl.Name)
	assert.Equal(t, []string{"Date", "Description", "Ref_No", "Credit", "Debit"}, tbl.Columns)
	// The blank line of commas is dropped.
	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, "SALARY APRIL ACME LTD", tbl.Rows[0][1])
	assert.Equal(t, "", tbl.Rows[1][3])
	assert.Equal(t, "n/a", tbl.Rows[4][3])
}

func TestReadTable_CSVHeaderCleanup(t *testing.T) {
	r := DefaultRegistry()
	tbl, err := r.ReadTable("second_bank.csv", readTestdata(t, "second_bank.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Trans Description", "Transaction ID", "Amount Credited", "Branch"}, tbl.Columns)
	assert.Equal(t, "SALARY, MAY", tbl.Rows[0][0])
}

func TestReadTable_RaggedRows(t *testing.T) {
	src := "Desc,Ref,Credit\nonly desc\na,b,c,extra\n"
	tbl, err := DefaultRegistry().ReadTable("ragged.csv", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"only desc", "", ""}, {"a", "b", "c"}}, tbl.Rows)
}

func TestReadTable_BlankHeaderNamed(t *testing.T) {
	tbl, err := DefaultRegistry().ReadTable("x.csv", strings.NewReader("Desc,,Ref\na,b,c\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Desc", "Unnamed: 1", "Ref"}, tbl.Columns)
}

func TestReadTable_DuplicateHeadersRenamed(t *testing.T) {
	src := "Desc,Desc,Ref,Desc\nsalary,first-note,R1,last\n"
	tbl, err := DefaultRegistry().ReadTable("dup.csv", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Desc", "Desc.1", "Ref", "Desc.2"}, tbl.Columns)
	assert.Equal(t, [][]string{{"salary", "first-note", "R1", "last"}}, tbl.Rows)
}

func TestReadTable_DuplicateHeaderSkipsTakenSuffix(t *testing.T) {
	src := "Desc,Desc,Desc.1\na,b,c\n"
	tbl, err := DefaultRegistry().ReadTable("dup.csv", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Desc", "Desc.2", "Desc.1"}, tbl.Columns)
}

func TestReadTable_HeaderOnly(t *testing.T) {
	tbl, err := DefaultRegistry().ReadTable("x.csv", strings.NewReader("Desc,Ref\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestReadTable_Unreadable(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unsupported extension", "notes.txt", "Desc,Ref\n"},
		{"empty csv", "empty.csv", ""},
		{"blank header", "blank.csv", ",,\n1,2,3\n"},
		{"garbage xlsx", "bad.xlsx", "this is not a zip"},
		{"garbage xls", "bad.xls", "this is not a workbook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ReadTable(tt.file, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnreadable)
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Description", "Ref_No", "Credit"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"SALARY", "R1", 1500.75}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"ATM", "R2", 20}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := DefaultRegistry().ReadTable("statement.XLSX", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Ref_No", "Credit"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"SALARY", "R1", "1500.75"}, tbl.Rows[0])
	assert.Equal(t, "20", tbl.Rows[1][2])
}

func TestReadTable_XLS(t *testing.T) {
	tbl, err := DefaultRegistry().ReadTable("bank_statement.xls", readTestdata(t, "bank_statement.xls"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Txn Date", "Description", "Ref_No", "Credit"}, tbl.Columns)
	// The empty fourth row is dropped and the short row padded.
	assert.Equal(t, [][]string{
		{"01/05/2024", "SALARY MAY ACME LTD", "X2001", "1200"},
		{"02/05/2024", "ATM WITHDRAWAL", "X2002", ""},
		{"03/05/2024", "NEFT SALARY BONUS", "X2003", "250.5"},
	}, tbl.Rows)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(".csv"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	rd := r.Get(".csv")
	require.NotNil(t, rd)
	assert.Equal(t, "csv", rd.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.NotNil(t, r.Get(".CSV"))
	assert.True(t, r.Supports("Statement.Csv"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.Panics(t, func() { r.Register(&CSVReader{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{".csv", ".xls", ".xlsm", ".xlsx"}, r.Extensions())
}

func TestScan_FindsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	for _, name := range []string{"bank.csv", "q1.xlsx", "old.xls", "other.txt", ".hidden.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(importDir, name), []byte("data"), 0o644))
	}

	files, err := DefaultRegistry().Scan(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"bank.csv", "old.xls", "q1.xlsx"}, names)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := DefaultRegistry().Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	files, err := DefaultRegistry().Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(importDir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_Missing(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "nope.csv")
	assert.Error(t, err)
}
