package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/txsift/internal/classifier"
	"github.com/cleared-dev/txsift/internal/config"
	"github.com/cleared-dev/txsift/internal/features"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/id"
	"github.com/cleared-dev/txsift/internal/importer"
	"github.com/cleared-dev/txsift/internal/pipeline"
	"github.com/cleared-dev/txsift/internal/storage"
)

// openStore is replaced in tests.
var openStore = storage.Open

// workspace is an initialized txsift directory with its services opened.
type workspace struct {
	root     string
	cfg      *config.Config
	logger   *log.Logger
	registry *importer.Registry
	store    storage.Store
	history  history.Recorder
	backend  classifier.Backend
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "txsift",
		Level:           lvl,
	})
}

// openWorkspace loads txsift.yaml from root and opens storage and history.
// The model is loaded by pipeline.
func openWorkspace(root string, logOut io.Writer) (*workspace, error) {
	cfgPath := filepath.Join(root, config.FileName)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s not found in %s (run `txsift init` first)", config.FileName, root)
		}
		return nil, err
	}

	ws := &workspace{
		root:     root,
		cfg:      cfg,
		logger:   newLogger(logOut, cfg.Log.Level),
		registry: importer.DefaultRegistry(),
	}

	ws.store, err = openStore(cfg.Storage, root)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	ws.history, err = history.Open(cfg.History, root)
	if err != nil {
		ws.store.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return ws, nil
}

func (w *workspace) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.root, p)
}

// pipeline loads the model once and builds a pipeline shared by every run.
func (w *workspace) pipeline() (*pipeline.Pipeline, error) {
	if w.backend == nil {
		modelCfg := w.cfg.Model
		modelCfg.Path = w.resolve(modelCfg.Path)
		if modelCfg.Vocabulary != "" {
			modelCfg.Vocabulary = w.resolve(modelCfg.Vocabulary)
		}
		backend, err := classifier.Load(modelCfg)
		if err != nil {
			return nil, fmt.Errorf("loading model: %w", err)
		}
		w.backend = backend
		w.logger.Debug("model loaded", "backend", modelCfg.Backend, "path", modelCfg.Path)
	}
	return pipeline.New(pipeline.Options{
		Reader:     w.registry,
		Keywords:   w.cfg.Keywords.Sets(),
		Assembler:  features.NewAssembler(w.cfg.Features.MissingToken),
		Classifier: classifier.New(w.backend),
		Store:      w.store,
		History:    w.history,
		IDs:        id.NewGenerator(),
		Logger:     w.logger,
	})
}

// Close releases the model, history and store handles.
func (w *workspace) Close() error {
	var errs []error
	if w.backend != nil {
		errs = append(errs, w.backend.Close())
	}
	errs = append(errs, w.history.Close(), w.store.Close())
	return errors.Join(errs...)
}
