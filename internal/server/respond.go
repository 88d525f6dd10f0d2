package server

import (
	"encoding/json"
	"errors"
	"net/http"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/mindmap"
)

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, stage mindmap2pdf.Stage) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Stage: string(stage)})
}

// exportStatus maps an export error to an HTTP status.
func exportStatus(err error) int {
	switch {
	case errors.Is(err, mindmap2pdf.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, mindmap2pdf.ErrNavigation):
		return http.StatusBadGateway
	case errors.Is(err, mindmap2pdf.ErrSessionLaunch),
		errors.Is(err, mindmap2pdf.ErrPoolClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// buildStatus maps a document build error to an HTTP status.
func buildStatus(err error) int {
	switch {
	case errors.Is(err, mindmap.ErrEmptyOutline),
		errors.Is(err, mindmap.ErrOutlineTooLarge),
		errors.Is(err, mindmap.ErrTooManyNodes),
		errors.Is(err, mindmap.ErrInvalidFrontMatter):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
