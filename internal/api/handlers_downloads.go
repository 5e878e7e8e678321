package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreel/internal/preview"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var contentTypes = map[string]string{
	preview.FormatGIF.Ext(): "image/gif",
	preview.FormatMP4.Ext(): "video/mp4",
}

// handleDownload serves a rendered artifact. Only "<job id>.<format>" names
// resolve, so uploads and anything outside OutputDir are unreachable.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	ext := strings.ToLower(filepath.Ext(filename))
	ctype, ok := contentTypes[ext]
	if !ok {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	id, err := uuid.Parse(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if err != nil {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.orchestrator.OutputDir(), id.String()+ext)
	f, err := os.Open(path)
	if err != nil {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+id.String()+ext+`"`)
	http.ServeContent(w, r, id.String()+ext, info.ModTime(), f)
}
