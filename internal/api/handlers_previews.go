package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docreel/internal/document"
	"github.com/dgallion1/docreel/internal/pipeline"
	"github.com/dgallion1/docreel/internal/preview"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !document.Supported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnprocessableEntity)
		return
	}

	req, err := s.previewRequest(r, filename)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if err := preview.ValidateInput(int64(len(data)), 0, s.cfg.Limits()); err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	job, err := s.orchestrator.NewJob(filename, data, req)
	if err != nil {
		s.log.Error("store upload failed", "filename", filename, "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/previews/%s/status", job.ID),
	})
}

// previewRequest reads the optional render parameters, falling back to the
// configured defaults.
func (s *Server) previewRequest(r *http.Request, filename string) (preview.Request, error) {
	req := preview.Request{
		// Placeholders until the upload is stored.
		DocumentPath: filename,
		OutputBase:   filename,
		MaxDuration:  s.cfg.DefaultMaxDuration,
		Crossfade:    s.cfg.DefaultCrossfade,
		Formats:      []preview.Format{preview.FormatGIF},
	}

	if v := r.FormValue("max_duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: max_duration %q is not a number", preview.ErrInvalidConfiguration, v)
		}
		req.MaxDuration = d
	}
	if v := r.FormValue("crossfade"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: crossfade %q is not a number", preview.ErrInvalidConfiguration, v)
		}
		req.Crossfade = c
	}
	if v := r.FormValue("format"); v != "" {
		formats, err := preview.ParseFormats(v)
		if err != nil {
			return req, err
		}
		req.Formats = formats
	}

	dims := s.cfg.DefaultDimensions
	if v := r.FormValue("dimensions"); v != "" {
		dims = v
	}
	w, h, err := preview.ParseDimensions(dims)
	if err != nil {
		return req, err
	}
	req.Width, req.Height = w, h

	return req, req.Validate()
}

func (s *Server) handlePreviewStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleDeletePreview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	switch err := s.orchestrator.DeleteJob(jobID); {
	case errors.Is(err, pipeline.ErrJobNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pipeline.ErrJobRunning):
		jsonError(w, err.Error(), http.StatusConflict)
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusFor maps pipeline error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, preview.ErrSizeExceeded):
		return http.StatusRequestEntityTooLarge
	case preview.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, preview.ErrUnreadableDocument), errors.Is(err, preview.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
