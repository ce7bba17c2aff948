package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Vocabulary maps a token to its feature column.
type Vocabulary map[string]int

// LoadVocabulary decodes a JSON object of token to column index.
func LoadVocabulary(r io.Reader) (Vocabulary, error) {
	var v Vocabulary
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding vocabulary: %w", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	return v, nil
}

// Matrix is a dense row-major float32 feature matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// CountVectorizer produces token counts over a fixed vocabulary. Tokens
// outside the vocabulary are ignored.
type CountVectorizer struct {
	vocab Vocabulary
	width int
}

// NewCountVectorizer sizes the feature width from the largest index.
func NewCountVectorizer(v Vocabulary) (*CountVectorizer, error) {
	width := 0
	for tok, i := range v {
		if i < 0 {
			return nil, fmt.Errorf("vocabulary token %q has negative index %d", tok, i)
		}
		if i+1 > width {
			width = i + 1
		}
	}
	return &CountVectorizer{vocab: v, width: width}, nil
}

// Width returns the number of feature columns.
func (c *CountVectorizer) Width() int { return c.width }

// Transform counts vocabulary tokens per text.
func (c *CountVectorizer) Transform(texts []string) (Matrix, error) {
	m := Matrix{Rows: len(texts), Cols: c.width, Data: make([]float32, len(texts)*c.width)}
	for r, t := range texts {
		row := m.Data[r*c.width : (r+1)*c.width]
		for _, tok := range Tokenize(t) {
			if i, ok := c.vocab[tok]; ok {
				row[i]++
			}
		}
	}
	return m, nil
}

// ONNXConfig locates an exported model and its runtime.
type ONNXConfig struct {
	ModelPath  string
	Library    string // onnxruntime shared library; empty uses the loader default
	InputName  string
	OutputName string
}

var ortEnv struct {
	once sync.Once
	err  error
}

func initRuntime(lib string) error {
	ortEnv.once.Do(func() {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXModel runs a classifier exported to ONNX that takes a float32
// [rows, cols] input and emits int64 labels.
type ONNXModel struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	cols    int
}

// NewONNXModel opens a session for cfg expecting cols input features.
func NewONNXModel(cfg ONNXConfig, cols int) (*ONNXModel, error) {
	if err := initRuntime(cfg.Library); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("opening onnx model %s: %w", cfg.ModelPath, err)
	}
	return &ONNXModel{session: session, cols: cols}, nil
}

// ErrModelClosed is returned by Predict after Close.
var ErrModelClosed = errors.New("onnx model is closed")

// Predict runs one batch through the session.
func (m *ONNXModel) Predict(x Matrix) ([]int, error) {
	if x.Rows == 0 {
		return []int{}, nil
	}
	if x.Cols != m.cols {
		return nil, fmt.Errorf("feature width %d, model expects %d", x.Cols, m.cols)
	}
	if m.closed() {
		return nil, ErrModelClosed
	}

	input, err := ort.NewTensor(ort.NewShape(int64(x.Rows), int64(x.Cols)), x.Data)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[int64](ort.NewShape(int64(x.Rows)))
	if err != nil {
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}
	defer output.Destroy()

	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil, ErrModelClosed
	}
	err = m.session.Run([]ort.Value{input}, []ort.Value{output})
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("running onnx session: %w", err)
	}

	raw := output.GetData()
	labels := make([]int, len(raw))
	for i, v := range raw {
		labels[i] = int(v)
	}
	return labels, nil
}

// Close releases the session.
func (m *ONNXModel) closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session == nil
}

func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

type onnxBackend struct {
	Pair[Matrix]
	model *ONNXModel
}

// NewONNXBackend pairs a count vectorizer with the ONNX model trained on it.
func NewONNXBackend(vec *CountVectorizer, m *ONNXModel) Backend {
	return &onnxBackend{
		Pair:  Pair[Matrix]{Vectorizer: vec, Model: m},
		model: m,
	}
}

func (b *onnxBackend) Close() error { return b.model.Close() }
