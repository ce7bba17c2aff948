// Package report renders run outcomes for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"

	"github.com/cleared-dev/txsift/internal/export"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/model"
	"github.com/cleared-dev/txsift/internal/pipeline"
)

// NoDataMessage is shown when a run kept no rows.
const NoDataMessage = "No valid data found in uploaded files."

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	totalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

// Options bounds the rendered output.
type Options struct {
	MaxCellWidth int // 0 means 24
	MaxRows      int // 0 means all
}

func (o Options) cell(s string) string {
	w := o.MaxCellWidth
	if w <= 0 {
		w = 24
	}
	return truncate.StringWithTail(s, uint(w), "…")
}

// Render writes the per-file outcomes, the kept rows and the total.
func Render(w io.Writer, run *pipeline.Run, opts Options) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run "+run.ID) + "\n")
	b.WriteString(Files(run.Files, opts) + "\n")

	if run.State != pipeline.StateDone || run.Result == nil {
		b.WriteString(warnStyle.Render(NoDataMessage) + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	sheet := export.ResultSheet(run.Result, true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(truncateAll(sheet.Columns, opts)...)
	for i, row := range sheet.Rows {
		if opts.MaxRows > 0 && i >= opts.MaxRows {
			break
		}
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = opts.cell(export.CellString(v))
		}
		t.Row(cells...)
	}
	b.WriteString(t.String() + "\n")
	if opts.MaxRows > 0 && len(sheet.Rows) > opts.MaxRows {
		fmt.Fprintf(&b, "… %d more rows\n", len(sheet.Rows)-opts.MaxRows)
	}
	b.WriteString(totalStyle.Render(fmt.Sprintf("Total credit: %s (%d rows)", run.Total().StringFixed(2), len(run.Result.Rows))) + "\n")
	if run.ArtifactKey != "" {
		fmt.Fprintf(&b, "Merged workbook: %s\n", run.ArtifactKey)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Files renders one line per submitted file.
func Files(files []model.FileStatus, opts Options) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("File", "Outcome", "Description", "Reference", "Credit", "Rows", "Kept", "Note")
	for _, f := range files {
		t.Row(
			opts.cell(f.Name),
			string(f.Outcome),
			opts.cell(strings.Join(f.Description, ", ")),
			opts.cell(strings.Join(f.Reference, ", ")),
			opts.cell(f.Credit),
			strconv.Itoa(f.Rows),
			strconv.Itoa(f.Positive),
			opts.cell(f.Error),
		)
	}
	return t.String()
}

// Runs renders recorded runs, newest first.
func Runs(w io.Writer, records []history.Record, opts Options) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Run", "Started", "State", "Files", "Rows", "Total", "Artifact")
	for _, r := range records {
		t.Row(
			r.RunID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.State,
			strconv.Itoa(len(r.Files)),
			strconv.Itoa(r.Rows),
			r.Total.StringFixed(2),
			opts.cell(r.ArtifactKey),
		)
	}
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

func truncateAll(ss []string, opts Options) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = opts.cell(s)
	}
	return out
}
