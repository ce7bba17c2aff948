// Package pipeline runs a batch of uploaded files through column matching,
// classification, filtering and aggregation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txsift/internal/aggregate"
	"github.com/cleared-dev/txsift/internal/classifier"
	"github.com/cleared-dev/txsift/internal/columns"
	"github.com/cleared-dev/txsift/internal/credit"
	"github.com/cleared-dev/txsift/internal/export"
	"github.com/cleared-dev/txsift/internal/features"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/id"
	"github.com/cleared-dev/txsift/internal/model"
)

// ErrNoFiles reports a run submitted with no files.
var ErrNoFiles = errors.New("no files uploaded")

// ErrNoData is returned when no file contributed a positive row.
var ErrNoData = aggregate.ErrNoData

// State is the lifecycle position of a run.
type State string

const (
	StateIdle        State = "idle"
	StateProcessing  State = "processing"
	StateFileSkipped State = "file_skipped"
	StateFileLabeled State = "file_labeled"
	StateAggregating State = "aggregating"
	StateNoData      State = "no_data"
	StateDone        State = "done"
)

// TableReader parses a named upload into a table.
type TableReader interface {
	ReadTable(name string, r io.Reader) (*model.Table, error)
}

// ArtifactStore persists run outputs.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Run is the outcome of one batch.
type Run struct {
	ID        string
	StartedAt time.Time
	State     State
	Files     []model.FileStatus // one per submitted file, in order
	Result    *aggregate.Result  // nil unless State is StateDone
	// ArtifactKey locates the merged workbook when a store is configured.
	ArtifactKey string
}

// Total returns the summed credit, zero without a result.
func (r *Run) Total() decimal.Decimal {
	if r.Result == nil {
		return decimal.Zero
	}
	return r.Result.Total
}

// Options wires a Pipeline.
type Options struct {
	Reader     TableReader
	Keywords   columns.KeywordSets
	Assembler  *features.Assembler
	Classifier *classifier.FileClassifier
	Store      ArtifactStore    // optional
	History    history.Recorder // optional
	IDs        *id.Generator
	Logger     *log.Logger
	Now        func() time.Time
}

// Pipeline processes batches. It holds no per-run state, so concurrent
// calls to Run are independent.
type Pipeline struct {
	reader     TableReader
	keywords   columns.KeywordSets
	assembler  *features.Assembler
	classifier *classifier.FileClassifier
	store      ArtifactStore
	history    history.Recorder
	ids        *id.Generator
	logger     *log.Logger
	now        func() time.Time
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Reader == nil {
		return nil, fmt.Errorf("pipeline: reader is required")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("pipeline: classifier is required")
	}
	p := &Pipeline{
		reader:     opts.Reader,
		keywords:   opts.Keywords,
		assembler:  opts.Assembler,
		classifier: opts.Classifier,
		store:      opts.Store,
		history:    opts.History,
		ids:        opts.IDs,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if p.assembler == nil {
		p.assembler = features.NewAssembler(features.DefaultMissingToken)
	}
	if p.ids == nil {
		p.ids = id.NewGenerator()
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Run processes sources in order. A file that cannot be read, matched or
// classified is skipped and reported in Run.Files; it never fails the batch.
// With no sources Run returns ErrNoFiles. When nothing survives filtering it
// returns the run, in StateNoData, together with ErrNoData.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*Run, error) {
	if len(sources) == 0 {
		return nil, ErrNoFiles
	}

	run := &Run{ID: p.ids.New(), StartedAt: p.now(), State: StateIdle}
	logger := p.logger.With("run", run.ID)
	logger.Info("run started", "files", len(sources))

	acc := aggregate.NewAccumulator()
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run.State = StateProcessing
		status, filtered := p.processFile(ctx, logger, run.ID, i+1, src)
		run.Files = append(run.Files, status)
		if status.Outcome.Skipped() {
			run.State = StateFileSkipped
			continue
		}
		run.State = StateFileLabeled
		acc.Add(filtered)
	}

	run.State = StateAggregating
	res, err := acc.Result()
	if errors.Is(err, aggregate.ErrNoData) {
		run.State = StateNoData
		logger.Warn("no positive rows in any file")
		p.record(ctx, logger, run)
		return run, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}
	run.Result = res

	if p.store != nil {
		key := id.MergedKey(run.ID)
		if err := p.saveMerged(ctx, key, res); err != nil {
			logger.Warn("saving merged workbook", "key", key, "err", err)
		} else {
			run.ArtifactKey = key
		}
	}

	run.State = StateDone
	logger.Info("run finished", "rows", len(res.Rows), "total", res.Total.StringFixed(2))
	p.record(ctx, logger, run)
	return run, nil
}

// processFile runs one source through the per-file stages. filtered is only
// meaningful when the status outcome is labeled.
func (p *Pipeline) processFile(ctx context.Context, logger *log.Logger, runID string, seq int, src Source) (model.FileStatus, aggregate.FilteredTable) {
	status := model.FileStatus{Name: src.Name()}
	logger = logger.With("file", status.Name)

	skip := func(outcome model.Outcome, err error) (model.FileStatus, aggregate.FilteredTable) {
		status.Outcome = outcome
		status.Error = err.Error()
		logger.Warn("file skipped", "outcome", outcome, "err", err)
		return status, aggregate.FilteredTable{}
	}

	rc, err := src.Open()
	if err != nil {
		return skip(model.OutcomeUnreadable, fmt.Errorf("opening: %w", err))
	}
	tbl, err := p.reader.ReadTable(status.Name, rc)
	rc.Close()
	if err != nil {
		return skip(model.OutcomeUnreadable, err)
	}
	status.Rows = tbl.Len()

	assign := columns.Assign(tbl.Columns, p.keywords)
	status.Description = assign.Names(tbl.Columns, columns.RoleDescription)
	status.Reference = assign.Names(tbl.Columns, columns.RoleReference)
	if names := assign.Names(tbl.Columns, columns.RoleCredit); len(names) > 0 {
		status.Credit = names[0]
	}
	if !assign.Usable() {
		return skip(model.OutcomeColumnsUnmatched, unmatchedError(assign))
	}

	texts := p.assembler.Assemble(tbl, assign.Description, assign.Reference)
	labels, err := p.classifier.Classify(ctx, texts)
	if err != nil {
		return skip(model.OutcomeClassificationFailed, err)
	}

	labeled := aggregate.LabeledTable{Table: tbl, Labels: labels, CreditColumn: assign.Credit}
	if assign.Credit >= 0 {
		labeled.Credits = credit.Coerce(tbl.Column(assign.Credit))
	} else {
		logger.Warn("no credit column; rows count toward the result but not the total")
	}

	if p.store != nil {
		key := id.LabeledKey(runID, seq, status.Name)
		if err := p.saveLabeled(ctx, key, labeled); err != nil {
			logger.Warn("saving labeled copy", "err", err)
		} else {
			status.ArtifactKey = key
		}
	}

	filtered := aggregate.Filter(labeled)
	status.Outcome = model.OutcomeLabeled
	status.Positive = len(filtered.Rows)
	logger.Info("file labeled", "rows", status.Rows, "positive", status.Positive)
	return status, filtered
}

func (p *Pipeline) saveLabeled(ctx context.Context, key string, t aggregate.LabeledTable) error {
	data, err := export.XLSXBytes(export.LabeledSheet(t))
	if err != nil {
		return err
	}
	return p.store.Put(ctx, key, data, export.XLSXContentType)
}

// saveMerged persists the merged result. A failure leaves the run without
// a downloadable artifact but keeps its result.
func (p *Pipeline) saveMerged(ctx context.Context, key string, res *aggregate.Result) error {
	data, err := export.XLSXBytes(export.ResultSheet(res, false))
	if err != nil {
		return fmt.Errorf("rendering merged workbook: %w", err)
	}
	return p.store.Put(ctx, key, data, export.XLSXContentType)
}

func unmatchedError(a columns.Assignment) error {
	var missing []string
	if len(a.Description) == 0 {
		missing = append(missing, "no description column")
	}
	if len(a.Reference) == 0 {
		missing = append(missing, "no reference column")
	}
	return errors.New(strings.Join(missing, ", "))
}

func (p *Pipeline) record(ctx context.Context, logger *log.Logger, run *Run) {
	if p.history == nil {
		return
	}
	rec := history.Record{
		RunID:       run.ID,
		Timestamp:   run.StartedAt,
		Files:       run.Files,
		ArtifactKey: run.ArtifactKey,
		Total:       run.Total(),
	}
	switch run.State {
	case StateDone:
		rec.State = history.StateDone
		rec.Rows = len(run.Result.Rows)
	default:
		rec.State = history.StateNoData
	}
	if err := p.history.Record(ctx, rec); err != nil {
		logger.Warn("recording run history", "err", err)
	}
}
