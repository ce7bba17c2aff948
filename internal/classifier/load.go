package classifier

import (
	"fmt"
	"os"

	"github.com/cleared-dev/txsift/internal/config"
)

// Load opens the backend named by cfg. Paths are used as given; callers
// resolve them against the workspace first.
func Load(cfg config.ModelConfig) (Backend, error) {
	switch cfg.Backend {
	case config.ModelBayes, "":
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening model: %w", err)
		}
		defer f.Close()
		m, err := LoadBayes(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.Path, err)
		}
		return NewBayesBackend(m), nil

	case config.ModelONNX:
		f, err := os.Open(cfg.Vocabulary)
		if err != nil {
			return nil, fmt.Errorf("opening vocabulary: %w", err)
		}
		defer f.Close()
		vocab, err := LoadVocabulary(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.Vocabulary, err)
		}
		vec, err := NewCountVectorizer(vocab)
		if err != nil {
			return nil, err
		}
		m, err := NewONNXModel(ONNXConfig{
			ModelPath:  cfg.Path,
			Library:    cfg.ORTLibrary,
			InputName:  cfg.InputName,
			OutputName: cfg.OutputName,
		}, vec.Width())
		if err != nil {
			return nil, err
		}
		return NewONNXBackend(vec, m), nil

	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
}
