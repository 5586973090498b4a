// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"document-analyzer/internal/domain"
	"document-analyzer/internal/extractor"
	"document-analyzer/internal/service"
	apperrors "document-analyzer/pkg/errors"
)

// AnalysisHandler handles document analysis HTTP requests
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	config          domain.Config
	logger          domain.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *service.AnalysisService, config domain.Config, logger domain.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		config:          config,
		logger:          logger,
	}
}

// AnalyzeDocument accepts a multipart upload and runs the full pipeline
// synchronously, returning the reduced result.
//
// Form fields: file (required), directive (required), format (optional hint).
func (h *AnalysisHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	maxSize := h.config.GetMaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds maximum size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	directive := r.FormValue("directive")
	if directive == "" {
		h.writeError(w, http.StatusBadRequest, "directive field is required")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	format, err := extractor.DetectWithHint(content, header.Filename, r.FormValue("format"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	doc := domain.NewSourceDocument(header.Filename, format, content)
	h.logger.Info("analysis request accepted",
		"document_id", doc.ID, "filename", doc.Filename,
		"format", format, "size", doc.Size, "directive", directive)

	result, err := h.analysisService.Analyze(r.Context(), doc, directive)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetAnalysis returns a previously persisted analysis result.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]
	if documentID == "" {
		h.writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	result, err := h.analysisService.GetAnalysis(r.Context(), documentID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// writeDomainError maps pipeline errors onto the application error
// taxonomy and its HTTP status codes.
func (h *AnalysisHandler) writeDomainError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		appErr = apperrors.NewUnsupportedFormatError(err.Error())
	case errors.Is(err, domain.ErrCorruptInput), errors.Is(err, domain.ErrNoExtractableContent):
		appErr = apperrors.NewProcessingError(err.Error(), err)
	case errors.Is(err, domain.ErrAnalysisInProgress):
		appErr = apperrors.NewConflictError(err.Error())
	case errors.Is(err, domain.ErrCancelled):
		// Client went away; 499 is conventional even if unregistered.
		h.writeError(w, 499, err.Error())
		return
	case errors.As(err, &appErr):
		// Already classified, typically by the repository.
	default:
		h.logger.Error("analysis request failed", err)
		appErr = apperrors.NewInternalError("analysis request failed", err)
	}
	h.writeError(w, appErr.StatusCode, appErr.Message)
}
