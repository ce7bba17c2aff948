// Package id issues run identifiers and derives artifact keys from them.
package id

import (
	"crypto/rand"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues lexically sortable run IDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator returns a Generator seeded from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// New returns a fresh run ID. IDs from one Generator strictly increase.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// ParseRunID validates a run ID and returns its creation time.
func ParseRunID(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run ID %q: %w", runID, err)
	}
	return ulid.Time(u.Time()), nil
}

// runsPrefix is the key prefix for all run artifacts.
const runsPrefix = "runs"

// RunPrefix returns "runs/<run-id>".
func RunPrefix(runID string) string {
	return path.Join(runsPrefix, runID)
}

// MergedKey returns the key of a run's merged workbook.
// "01J..." -> "runs/01J.../merged_data.xlsx"
func MergedKey(runID string) string {
	return path.Join(RunPrefix(runID), "merged_data.xlsx")
}

// LabeledKey returns the key of one file's labeled copy. seq is the file's
// 1-based position in the run so equal names do not collide.
// ("01J...", 2, "Jan Statement.csv") -> "runs/01J.../labeled/02-Jan_Statement.xlsx"
func LabeledKey(runID string, seq int, name string) string {
	return path.Join(RunPrefix(runID), "labeled", fmt.Sprintf("%02d-%s.xlsx", seq, Stem(name)))
}

// Stem reduces a filename to a key-safe base name without extension.
func Stem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, base)
	stem = strings.Trim(stem, ".")
	if stem == "" {
		return "file"
	}
	return stem
}
