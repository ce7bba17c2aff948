package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/txsift/internal/buildinfo"
	"github.com/cleared-dev/txsift/internal/export"
	"github.com/cleared-dev/txsift/internal/history"
	"github.com/cleared-dev/txsift/internal/id"
	"github.com/cleared-dev/txsift/internal/model"
	"github.com/cleared-dev/txsift/internal/pipeline"
	"github.com/cleared-dev/txsift/internal/storage"
)

// User-facing messages.
const (
	MsgNoFiles  = "No files uploaded."
	MsgNoData   = "No valid data found in uploaded files."
	MsgNoMerged = "No merged data available."
)

// uploadFields are the multipart fields accepted as files.
var uploadFields = []string{"file", "files"}

type predictResponse struct {
	Status   string             `json:"status"`
	Message  string             `json:"message,omitempty"`
	RunID    string             `json:"run_id"`
	Files    []model.FileStatus `json:"files"`
	Columns  []string           `json:"columns,omitempty"`
	Rows     [][]string         `json:"rows,omitempty"`
	RowCount int                `json:"row_count"`
	Total    string             `json:"total"`
	Download string             `json:"download,omitempty"`
}

type runResponse struct {
	RunID     string             `json:"run_id"`
	Timestamp string             `json:"timestamp"`
	State     string             `json:"state"`
	Rows      int                `json:"rows"`
	Total     string             `json:"total"`
	Download  string             `json:"download,omitempty"`
	Files     []model.FileStatus `json:"files"`
}

type uploadSource struct {
	fh *multipart.FileHeader
}

func (u uploadSource) Name() string { return filepath.Base(u.fh.Filename) }

func (u uploadSource) Open() (io.ReadCloser, error) { return u.fh.Open() }

func downloadURL(runID string) string {
	return "/download?run=" + url.QueryEscape(runID)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.String()})
}

func (s *Server) handlePredict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload())

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoFiles})
		return
	}

	var sources []pipeline.Source
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			if fh.Filename == "" {
				continue
			}
			sources = append(sources, uploadSource{fh: fh})
		}
	}
	if len(sources) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoFiles})
		return
	}

	run, err := s.runner.Run(c.Request.Context(), sources)
	switch {
	case errors.Is(err, pipeline.ErrNoData):
		c.JSON(http.StatusOK, predictResponse{
			Status:  string(pipeline.StateNoData),
			Message: MsgNoData,
			RunID:   run.ID,
			Files:   run.Files,
			Total:   "0.00",
		})
		return
	case errors.Is(err, pipeline.ErrNoFiles):
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoFiles})
		return
	case err != nil:
		s.logger.Error("run failed", "err", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	sheet := export.ResultSheet(run.Result, true)
	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = export.CellString(v)
		}
		rows[i] = cells
	}
	resp := predictResponse{
		Status:   string(pipeline.StateDone),
		RunID:    run.ID,
		Files:    run.Files,
		Columns:  sheet.Columns,
		Rows:     rows,
		RowCount: len(rows),
		Total:    run.Total().StringFixed(2),
	}
	if run.ArtifactKey != "" {
		resp.Download = downloadURL(run.ID)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDownload(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNoMerged})
		return
	}

	runID := c.Query("run")
	key := ""
	if runID == "" {
		if s.history == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": MsgNoMerged})
			return
		}
		latest, err := s.history.Latest(c.Request.Context())
		if errors.Is(err, history.ErrNoRuns) || (err == nil && latest.ArtifactKey == "") {
			c.JSON(http.StatusNotFound, gin.H{"error": MsgNoMerged})
			return
		}
		if err != nil {
			s.logger.Error("finding latest run", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		key = latest.ArtifactKey
	} else {
		if _, err := id.ParseRunID(runID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		key = id.MergedKey(runID)
	}

	data, err := s.store.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNoMerged})
		return
	}
	if err != nil {
		s.logger.Error("reading merged workbook", "key", key, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.MergedFileName+`"`)
	c.Data(http.StatusOK, export.XLSXContentType, data)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, []runResponse{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	records, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	out := make([]runResponse, 0, len(records))
	for _, r := range records {
		rr := runResponse{
			RunID:     r.RunID,
			Timestamp: r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			State:     r.State,
			Rows:      r.Rows,
			Total:     r.Total.StringFixed(2),
			Files:     r.Files,
		}
		if r.ArtifactKey != "" {
			rr.Download = downloadURL(r.RunID)
		}
		out = append(out, rr)
	}
	c.JSON(http.StatusOK, out)
}
