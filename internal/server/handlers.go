package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
)

// ErrUnsupportedSource indicates a network request named a non-http(s) source.
var ErrUnsupportedSource = errors.New("source must be an http or https URL")

// jobOverrides are the per-request job settings shared by both endpoints.
type jobOverrides struct {
	Padding       *int    `json:"padding,omitempty"`
	Strategy      string  `json:"strategy,omitempty"`
	Settle        string  `json:"settle,omitempty"`
	SettleDelayMS *int    `json:"settleDelayMs,omitempty"`
	Theme         *string `json:"theme,omitempty"`
	Preview       *bool   `json:"preview,omitempty"`
}

type exportRequest struct {
	Source string `json:"source"`
	jobOverrides
}

type mindmapRequest struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	jobOverrides
}

type exportResponse struct {
	ID         string `json:"id"`
	HTML       string `json:"html,omitempty"`
	PDF        string `json:"pdf"`
	Preview    string `json:"preview,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Fallback   bool   `json:"fallback"`
	Strategy   string `json:"strategy"`
	DurationMS int64  `json:"durationMs"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Pool   *mindmap2pdf.PoolStats `json:"pool,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if r, ok := s.exporter.(statsReporter); ok {
		stats := r.Stats()
		resp.Pool = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}
	if err := checkRemoteSource(req.Source); err != nil {
		writeError(w, http.StatusBadRequest, err, mindmap2pdf.StageValidate)
		return
	}

	id := s.newID()
	job, err := s.job(id, req.Source, req.jobOverrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, mindmap2pdf.StageValidate)
		return
	}
	s.export(w, r, job, exportResponse{ID: id})
}

func (s *Server) handleMindmap(w http.ResponseWriter, r *http.Request) {
	var req mindmapRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		writeError(w, http.StatusBadRequest, errors.New("markdown cannot be empty"), "")
		return
	}

	id := s.newID()
	document := filepath.Join(s.cfg.OutputDir, id+".html")
	job, err := s.job(id, document, req.jobOverrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, mindmap2pdf.StageValidate)
		return
	}

	if _, err := s.builder.BuildFile(r.Context(), []byte(req.Markdown), document, req.Title); err != nil {
		s.logger.Warn("building mind map failed", "job", id, "error", err)
		writeError(w, buildStatus(err), err, "")
		return
	}
	s.export(w, r, job, exportResponse{ID: id, HTML: s.fileURL(id + ".html")})
}

// export runs the job and writes the response. resp carries the fields the
// caller already knows.
func (s *Server) export(w http.ResponseWriter, r *http.Request, job mindmap2pdf.Job, resp exportResponse) {
	result, err := s.exporter.Export(r.Context(), job)
	if err != nil {
		s.logger.Warn("export failed", "job", job.ID, "error", err)
		writeError(w, exportStatus(err), err, mindmap2pdf.FailedStage(err))
		return
	}

	resp.PDF = s.fileURL(filepath.Base(result.Path))
	if result.PreviewPath != "" {
		resp.Preview = s.fileURL(filepath.Base(result.PreviewPath))
	}
	resp.Width = result.Canvas.Width
	resp.Height = result.Canvas.Height
	resp.Fallback = result.Canvas.Fallback
	resp.Strategy = string(result.Strategy)
	resp.DurationMS = result.Duration.Milliseconds()
	writeJSON(w, http.StatusCreated, resp)
}

// job builds the export job for id from the configured defaults and the
// request overrides.
func (s *Server) job(id, source string, o jobOverrides) (mindmap2pdf.Job, error) {
	output := filepath.Join(s.cfg.OutputDir, id+".pdf")
	job := s.cfg.NewJob(source, output)
	job.ID = id

	if o.Padding != nil {
		job.Padding = *o.Padding
	}
	if o.Strategy != "" {
		strategy, err := mindmap2pdf.ParseStrategy(o.Strategy)
		if err != nil {
			return job, err
		}
		job.Strategy = strategy
	}
	if o.Settle != "" {
		mode, err := mindmap2pdf.ParseSettleMode(o.Settle)
		if err != nil {
			return job, err
		}
		job.Settle.Mode = mode
	}
	if o.SettleDelayMS != nil {
		if *o.SettleDelayMS < 0 {
			return job, fmt.Errorf("%w: settleDelayMs %d", mindmap2pdf.ErrInvalidTimeout, *o.SettleDelayMS)
		}
		job.Settle.Delay = time.Duration(*o.SettleDelayMS) * time.Millisecond
	}
	if o.Theme != nil {
		job.Theme = *o.Theme
	}
	if o.Preview != nil {
		job.Preview = nil
		if *o.Preview {
			job.Preview = &mindmap2pdf.Preview{Path: filepath.Join(s.cfg.OutputDir, id+".png")}
		}
	}
	if err := job.Validate(); err != nil {
		return job, err
	}
	return job, nil
}

// decode reads a JSON body no larger than the configured limit.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

// checkRemoteSource accepts absolute http(s) URLs only. Local paths and
// file:// URLs would let clients read the server's filesystem.
func checkRemoteSource(source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return mindmap2pdf.ErrEmptySource
	}
	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
	return nil
}
