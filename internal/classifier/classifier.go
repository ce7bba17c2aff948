// Package classifier labels assembled feature strings with a pre-trained
// binary model. A model is a vectorizer paired with a predictor sharing one
// feature representation.
package classifier

import (
	"context"
	"errors"
	"fmt"
)

// ErrClassification reports that a file could not be labeled.
var ErrClassification = errors.New("classification failed")

// Vectorizer maps texts to a feature representation.
type Vectorizer[F any] interface {
	Transform(texts []string) (F, error)
}

// Model predicts one label per row of a feature representation.
type Model[F any] interface {
	Predict(features F) ([]int, error)
}

// Predictor labels texts end to end.
type Predictor interface {
	Predict(ctx context.Context, texts []string) ([]int, error)
}

// Backend is a loaded Predictor that may hold native resources.
type Backend interface {
	Predictor
	Close() error
}

// Pair binds a Vectorizer to the Model trained on its output.
type Pair[F any] struct {
	Vectorizer Vectorizer[F]
	Model      Model[F]
}

// Predict vectorizes texts and runs the model.
func (p Pair[F]) Predict(ctx context.Context, texts []string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	features, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return nil, fmt.Errorf("vectorizing: %w", err)
	}
	labels, err := p.Model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}
	return labels, nil
}

// FileClassifier labels every row of one file.
type FileClassifier struct {
	predictor Predictor
}

// New wraps p. The predictor is read-only after load and shared by runs.
func New(p Predictor) *FileClassifier {
	return &FileClassifier{predictor: p}
}

// Classify returns exactly one label per text, in order. Label 1 marks a
// row to keep. Any failure, including a length mismatch, wraps
// ErrClassification.
func (c *FileClassifier) Classify(ctx context.Context, texts []string) ([]int, error) {
	if len(texts) == 0 {
		return []int{}, nil
	}
	labels, err := c.predictor.Predict(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if len(labels) != len(texts) {
		return nil, fmt.Errorf("%w: model returned %d labels for %d rows", ErrClassification, len(labels), len(texts))
	}
	return labels, nil
}
