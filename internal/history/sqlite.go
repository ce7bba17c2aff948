package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/txsift/internal/model"
)

type runRow struct {
	ID          string    `gorm:"primaryKey"`
	Timestamp   time.Time `gorm:"index"`
	State       string    `gorm:"index"`
	Rows        int
	Total       string
	ArtifactKey string
	Files       []fileRow `gorm:"foreignKey:RunID"`
}

func (runRow) TableName() string { return "runs" }

type fileRow struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"index"`
	Position    int
	Name        string
	Outcome     string
	Description string
	Reference   string
	Credit      string
	Rows        int
	Positive    int
	ArtifactKey string
	Error       string
}

func (fileRow) TableName() string { return "run_files" }

// SQLiteRecorder stores run records in a SQLite database.
type SQLiteRecorder struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database at path and migrates it.
func NewSQLite(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if err := db.AutoMigrate(&runRow{}, &fileRow{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrating history db: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// Record inserts r and its files in one transaction.
func (s *SQLiteRecorder) Record(ctx context.Context, r Record) error {
	row := runRow{
		ID:          r.RunID,
		Timestamp:   r.Timestamp.UTC(),
		State:       r.State,
		Rows:        r.Rows,
		Total:       r.Total.String(),
		ArtifactKey: r.ArtifactKey,
	}
	for i, f := range r.Files {
		row.Files = append(row.Files, fileRow{
			Position:    i,
			Name:        f.Name,
			Outcome:     string(f.Outcome),
			Description: strings.Join(f.Description, listSep),
			Reference:   strings.Join(f.Reference, listSep),
			Credit:      f.Credit,
			Rows:        f.Rows,
			Positive:    f.Positive,
			ArtifactKey: f.ArtifactKey,
			Error:       f.Error,
		})
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

func orderedFiles(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// List returns records newest first. Run IDs sort by creation time.
func (s *SQLiteRecorder) List(ctx context.Context, limit int) ([]Record, error) {
	q := s.db.WithContext(ctx).Preload("Files", orderedFiles).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Latest returns the newest completed run.
func (s *SQLiteRecorder) Latest(ctx context.Context) (Record, error) {
	var row runRow
	err := s.db.WithContext(ctx).Preload("Files", orderedFiles).
		Where("state = ?", StateDone).Order("id desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNoRuns
	}
	if err != nil {
		return Record{}, fmt.Errorf("finding latest run: %w", err)
	}
	return row.record()
}

// Close releases the database handle.
func (s *SQLiteRecorder) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (row runRow) record() (Record, error) {
	total, err := decimal.NewFromString(row.Total)
	if err != nil {
		return Record{}, fmt.Errorf("run %s: parsing total %q: %w", row.ID, row.Total, err)
	}
	rec := Record{
		RunID:       row.ID,
		Timestamp:   row.Timestamp,
		State:       row.State,
		Rows:        row.Rows,
		Total:       total,
		ArtifactKey: row.ArtifactKey,
	}
	for _, f := range row.Files {
		rec.Files = append(rec.Files, model.FileStatus{
			Name:        f.Name,
			Outcome:     model.Outcome(f.Outcome),
			Description: splitList(f.Description),
			Reference:   splitList(f.Reference),
			Credit:      f.Credit,
			Rows:        f.Rows,
			Positive:    f.Positive,
			ArtifactKey: f.ArtifactKey,
			Error:       f.Error,
		})
	}
	return rec, nil
}
