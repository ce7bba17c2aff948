package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txsift/internal/model"
)

// Header is the CSV header for run-log.csv. Each row is one file of a run.
const Header = "timestamp,run_id,state,rows,total,artifact,file,outcome,description_columns,reference_columns,credit_column,file_rows,positive,file_artifact,error"

const (
	numFields    = 15
	colTimestamp = 0
	colRunID     = 1
	colState     = 2
	colRows      = 3
	colTotal     = 4
	colArtifact  = 5
	colFile      = 6
	colOutcome   = 7
	colDescCols  = 8
	colRefCols   = 9
	colCreditCol = 10
	colFileRows  = 11
	colPositive  = 12
	colFileArt   = 13
	colError     = 14

	listSep = ";"
)

// CSVRecorder appends run records to a CSV file.
type CSVRecorder struct {
	mu   sync.Mutex
	path string
}

// NewCSV returns a recorder writing to path. The file is created on first
// Record.
func NewCSV(path string) *CSVRecorder {
	return &CSVRecorder{path: path}
}

// MarshalRecord converts a Record to one CSV row per file.
func MarshalRecord(r Record) [][]string {
	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		row := make([]string, numFields)
		row[colTimestamp] = r.Timestamp.UTC().Format(time.RFC3339)
		row[colRunID] = r.RunID
		row[colState] = r.State
		row[colRows] = strconv.Itoa(r.Rows)
		row[colTotal] = r.Total.StringFixed(2)
		row[colArtifact] = r.ArtifactKey
		row[colFile] = f.Name
		row[colOutcome] = string(f.Outcome)
		row[colDescCols] = strings.Join(f.Description, listSep)
		row[colRefCols] = strings.Join(f.Reference, listSep)
		row[colCreditCol] = f.Credit
		row[colFileRows] = strconv.Itoa(f.Rows)
		row[colPositive] = strconv.Itoa(f.Positive)
		row[colFileArt] = f.ArtifactKey
		row[colError] = f.Error
		rows = append(rows, row)
	}
	return rows
}

// unmarshalRow parses the run-level fields and the file of one row.
func unmarshalRow(rec []string) (Record, model.FileStatus, error) {
	if len(rec) != numFields {
		return Record{}, model.FileStatus{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[colTimestamp])
	if err != nil {
		return Record{}, model.FileStatus{}, fmt.Errorf("parsing timestamp %q: %w", rec[colTimestamp], err)
	}
	rows, err := strconv.Atoi(rec[colRows])
	if err != nil {
		return Record{}, model.FileStatus{}, fmt.Errorf("parsing rows %q: %w", rec[colRows], err)
	}
	total, err := decimal.NewFromString(rec[colTotal])
	if err != nil {
		return Record{}, model.FileStatus{}, fmt.Errorf("parsing total %q: %w", rec[colTotal], err)
	}
	fileRows, err := strconv.Atoi(rec[colFileRows])
	if err != nil {
		return Record{}, model.FileStatus{}, fmt.Errorf("parsing file rows %q: %w", rec[colFileRows], err)
	}
	positive, err := strconv.Atoi(rec[colPositive])
	if err != nil {
		return Record{}, model.FileStatus{}, fmt.Errorf("parsing positive %q: %w", rec[colPositive], err)
	}

	r := Record{
		RunID:       rec[colRunID],
		Timestamp:   ts,
		State:       rec[colState],
		Rows:        rows,
		Total:       total,
		ArtifactKey: rec[colArtifact],
	}
	f := model.FileStatus{
		Name:        rec[colFile],
		Outcome:     model.Outcome(rec[colOutcome]),
		Description: splitList(rec[colDescCols]),
		Reference:   splitList(rec[colRefCols]),
		Credit:      rec[colCreditCol],
		Rows:        fileRows,
		Positive:    positive,
		ArtifactKey: rec[colFileArt],
		Error:       rec[colError],
	}
	return r, f, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

// Record appends r, creating the file and header if needed.
func (c *CSVRecorder) Record(_ context.Context, r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, row := range MarshalRecord(r) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing file %d of run %s: %w", i, r.RunID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns records newest first.
func (c *CSVRecorder) List(_ context.Context, limit int) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return nil, err
	}
	// File order is oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Latest returns the newest completed run.
func (c *CSVRecorder) Latest(ctx context.Context) (Record, error) {
	records, err := c.List(ctx, 0)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.State == StateDone {
			return r, nil
		}
	}
	return Record{}, ErrNoRuns
}

// Close is a no-op; the file is opened per call.
func (c *CSVRecorder) Close() error { return nil }

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var records []Record
	for i, row := range rows[1:] {
		rec, file, err := unmarshalRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(records); n > 0 && records[n-1].RunID == rec.RunID {
			records[n-1].Files = append(records[n-1].Files, file)
			continue
		}
		rec.Files = []model.FileStatus{file}
		records = append(records, rec)
	}
	return records, nil
}
