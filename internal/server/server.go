// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/txsift/internal/config"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/pipeline"
)

// Runner executes a batch.
type Runner interface {
	Run(ctx context.Context, sources []pipeline.Source) (*pipeline.Run, error)
}

// ArtifactReader fetches stored artifacts.
type ArtifactReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Server serves uploads and downloads.
type Server struct {
	cfg     config.ServerConfig
	runner  Runner
	store   ArtifactReader
	history history.Recorder
	logger  *log.Logger
	engine  *gin.Engine
}

// New builds the gin engine and routes. store and hist may be nil, in which
// case downloads and run listing report nothing available.
func New(cfg config.ServerConfig, runner Runner, store ArtifactReader, hist history.Recorder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		store:   store,
		history: hist,
		logger:  logger,
	}

	engine := gin.New()
	engine.MaxMultipartMemory = s.maxUpload()
	engine.Use(gin.Recovery(), requestID(), accessLog(logger))
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		engine.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/predict", s.handlePredict)
	engine.GET("/download", s.handleDownload)
	engine.GET("/runs", s.handleRuns)
	s.engine = engine
	return s
}

func (s *Server) maxUpload() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = 32
	}
	return mb << 20
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
