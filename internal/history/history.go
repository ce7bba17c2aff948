// Package history records finished runs so they can be listed and their
// artifacts found again.
package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txsift/internal/config"
	"github.com/cleared-dev/txsift/internal/model"
)

// ErrNoRuns reports that no run with a merged artifact was recorded.
var ErrNoRuns = errors.New("no completed runs")

// Run states as recorded.
const (
	StateDone   = "done"
	StateNoData = "no_data"
)

// Record summarizes one run.
type Record struct {
	RunID       string
	Timestamp   time.Time
	State       string
	Rows        int
	Total       decimal.Decimal
	ArtifactKey string // merged workbook, empty for no_data runs
	Files       []model.FileStatus
}

// Recorder stores run records.
type Recorder interface {
	Record(ctx context.Context, r Record) error
	// List returns records newest first; limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Record, error)
	// Latest returns the newest run in StateDone, or ErrNoRuns.
	Latest(ctx context.Context) (Record, error)
	Close() error
}

// Open returns the recorder selected by cfg. A relative path is resolved
// against repoRoot.
func Open(cfg config.HistoryConfig, repoRoot string) (Recorder, error) {
	path := cfg.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	switch cfg.Backend {
	case config.HistoryCSV, "":
		return NewCSV(path), nil
	case config.HistorySQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
