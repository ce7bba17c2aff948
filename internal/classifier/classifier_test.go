package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbrukh/bayesian"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txsift/internal/config"
)

type stubPredictor struct {
	labels []int
	err    error
	calls  int
}

func (s *stubPredictor) Predict(_ context.Context, texts []string) ([]int, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.labels, nil
}

func TestClassify(t *testing.T) {
	p := &stubPredictor{labels: []int{1, 0, 1}}
	c := New(p)

	labels, err := c.Classify(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, labels)
}

func TestClassifyLengthMismatch(t *testing.T) {
	c := New(&stubPredictor{labels: []int{1}})
	_, err := c.Classify(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Contains(t, err.Error(), "1 labels for 2 rows")
}

func TestClassifyPredictorError(t *testing.T) {
	boom := errors.New("boom")
	c := New(&stubPredictor{err: boom})
	_, err := c.Classify(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrClassification)
	assert.ErrorIs(t, err, boom)
}

func TestClassifyEmptySkipsPredictor(t *testing.T) {
	p := &stubPredictor{}
	labels, err := New(p).Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.Equal(t, 0, p.calls)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"salary", "jan", "r001"}, Tokenize("SALARY Jan  R001 - x"))
	assert.Empty(t, Tokenize(" - "))
}

func trainedBayes(t *testing.T) *bayesian.Classifier {
	t.Helper()
	cl := bayesian.NewClassifier("0", "1")
	cl.Learn([]string{"salary", "payroll", "neft", "credit"}, "1")
	cl.Learn([]string{"salary", "bonus", "imps"}, "1")
	cl.Learn([]string{"atm", "withdrawal", "cash"}, "0")
	cl.Learn([]string{"pos", "purchase", "grocery", "nan"}, "0")
	return cl
}

func TestBayesBackend(t *testing.T) {
	m, err := NewBayesModel(trainedBayes(t))
	require.NoError(t, err)

	c := New(NewBayesBackend(m))
	labels, err := c.Classify(context.Background(), []string{
		"SALARY PAYROLL R001",
		"ATM WITHDRAWAL R002",
		"POS GROCERY nan",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, labels)
}

func TestNewBayesModelRejectsNonIntegerClasses(t *testing.T) {
	cl := bayesian.NewClassifier("keep", "drop")
	_, err := NewBayesModel(cl)
	assert.Error(t, err)
}

func TestLoadBayesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, trainedBayes(t).WriteToFile(path))

	b, err := Load(config.ModelConfig{Backend: config.ModelBayes, Path: path})
	require.NoError(t, err)
	defer b.Close()

	labels, err := b.Predict(context.Background(), []string{"neft salary", "atm cash"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, labels)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(config.ModelConfig{Backend: config.ModelBayes, Path: filepath.Join(dir, "missing.gob")})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.gob")
	require.NoError(t, os.WriteFile(garbage, []byte("not a model"), 0o644))
	_, err = Load(config.ModelConfig{Backend: config.ModelBayes, Path: garbage})
	assert.Error(t, err)

	_, err = Load(config.ModelConfig{Backend: "svm"})
	assert.ErrorContains(t, err, "unknown model backend")
}

func TestCountVectorizer(t *testing.T) {
	vocab, err := LoadVocabulary(strings.NewReader(`{"salary": 0, "atm": 1, "nan": 3}`))
	require.NoError(t, err)

	vec, err := NewCountVectorizer(vocab)
	require.NoError(t, err)
	assert.Equal(t, 4, vec.Width())

	m, err := vec.Transform([]string{"Salary salary R1", "ATM nan", "other"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 4, m.Cols)
	assert.Equal(t, []float32{
		2, 0, 0, 0,
		0, 1, 0, 1,
		0, 0, 0, 0,
	}, m.Data)
}

func TestVocabularyErrors(t *testing.T) {
	_, err := LoadVocabulary(strings.NewReader(`{}`))
	assert.Error(t, err)

	_, err = LoadVocabulary(strings.NewReader(`[1,2]`))
	assert.Error(t, err)

	_, err = NewCountVectorizer(Vocabulary{"x": -1})
	assert.Error(t, err)
}

type fixedModel struct{ labels []int }

func (f fixedModel) Predict(m Matrix) ([]int, error) { return f.labels[:m.Rows], nil }

func TestPairHonoursCancellation(t *testing.T) {
	vec, err := NewCountVectorizer(Vocabulary{"a": 0})
	require.NoError(t, err)
	p := Pair[Matrix]{Vectorizer: vec, Model: fixedModel{labels: []int{1, 1}}}

	labels, err := p.Predict(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, labels)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Predict(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestONNXModelPredictAfterClose(t *testing.T) {
	m := &ONNXModel{cols: 2}
	require.NoError(t, m.Close())

	_, err := m.Predict(Matrix{Rows: 1, Cols: 2, Data: []float32{1, 0}})
	assert.ErrorIs(t, err, ErrModelClosed)

	labels, err := m.Predict(Matrix{})
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestONNXModel(t *testing.T) {
	modelPath := os.Getenv("TXSIFT_TEST_ONNX_MODEL")
	vocabPath := os.Getenv("TXSIFT_TEST_ONNX_VOCAB")
	if modelPath == "" || vocabPath == "" {
		t.Skip("TXSIFT_TEST_ONNX_MODEL and TXSIFT_TEST_ONNX_VOCAB not set")
	}
	b, err := Load(config.ModelConfig{
		Backend:    config.ModelONNX,
		Path:       modelPath,
		Vocabulary: vocabPath,
		ORTLibrary: os.Getenv("ONNXRUNTIME_LIB"),
		InputName:  "input",
		OutputName: "label",
	})
	require.NoError(t, err)
	defer b.Close()

	labels, err := b.Predict(context.Background(), []string{"salary R1", "atm R2"})
	require.NoError(t, err)
	assert.Len(t, labels, 2)
}
