package classifier

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jbrukh/bayesian"
)

// TokenVectorizer turns each text into its token list.
type TokenVectorizer struct{}

// Transform tokenizes every text.
func (TokenVectorizer) Transform(texts []string) ([][]string, error) {
	docs := make([][]string, len(texts))
	for i, t := range texts {
		docs[i] = Tokenize(t)
	}
	return docs, nil
}

// BayesModel predicts with a serialized naive Bayes classifier whose class
// names are integer labels ("0", "1").
type BayesModel struct {
	cl     *bayesian.Classifier
	labels []int
}

// NewBayesModel maps the classes of cl to integer labels.
func NewBayesModel(cl *bayesian.Classifier) (*BayesModel, error) {
	if len(cl.Classes) < 2 {
		return nil, fmt.Errorf("bayes model has %d classes, need at least 2", len(cl.Classes))
	}
	labels := make([]int, len(cl.Classes))
	for i, c := range cl.Classes {
		n, err := strconv.Atoi(string(c))
		if err != nil {
			return nil, fmt.Errorf("bayes class %q is not an integer label", c)
		}
		labels[i] = n
	}
	return &BayesModel{cl: cl, labels: labels}, nil
}

// LoadBayes reads a gob-encoded classifier, as written by
// bayesian.Classifier.WriteToFile.
func LoadBayes(r io.Reader) (*BayesModel, error) {
	cl, err := bayesian.NewClassifierFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding bayes model: %w", err)
	}
	return NewBayesModel(cl)
}

// Predict returns the highest scoring label for each document.
func (m *BayesModel) Predict(docs [][]string) (labels []int, err error) {
	defer func() {
		// LogScores panics on an unconverted tf-idf model.
		if r := recover(); r != nil {
			labels, err = nil, fmt.Errorf("bayes scoring: %v", r)
		}
	}()
	labels = make([]int, len(docs))
	for i, doc := range docs {
		_, best, _ := m.cl.LogScores(doc)
		labels[i] = m.labels[best]
	}
	return labels, nil
}

// Close is a no-op; the model holds no native resources.
func (m *BayesModel) Close() error { return nil }

// bayesBackend adapts a BayesModel to Backend.
type bayesBackend struct {
	Pair[[][]string]
	model *BayesModel
}

// NewBayesBackend pairs m with the token vectorizer it was trained on.
func NewBayesBackend(m *BayesModel) Backend {
	return &bayesBackend{
		Pair:  Pair[[][]string]{Vectorizer: TokenVectorizer{}, Model: m},
		model: m,
	}
}

func (b *bayesBackend) Close() error { return b.model.Close() }
