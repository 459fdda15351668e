// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
	apperrors "github.com/vishwajeetdabholkar/resume-parser-api/pkg/errors"

	"github.com/google/uuid"
)

// ResumeHandler handles resume parsing HTTP requests
type ResumeHandler struct {
	processor domain.ResumeProcessor
	ai        domain.ResumeAI
	config    domain.Config
	logger    domain.Logger
}

// NewResumeHandler creates a new resume handler
func NewResumeHandler(processor domain.ResumeProcessor, ai domain.ResumeAI, config domain.Config, logger domain.Logger) *ResumeHandler {
	return &ResumeHandler{
		processor: processor,
		ai:        ai,
		config:    config,
		logger:    logger,
	}
}

// notResumeResponse is the distinct rejected-classification payload
type notResumeResponse struct {
	Status    bool   `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	ProcessID string `json:"process_id"`
}

// ParseResume processes an uploaded or remote PDF resume and returns the
// structured extraction result.
func (h *ResumeHandler) ParseResume(w http.ResponseWriter, r *http.Request) {
	processID := uuid.New().String()
	start := time.Now()
	h.logger.Info("Starting resume parsing", "process_id", processID)

	source, err := h.resolveSource(r)
	if err != nil {
		h.logger.Error("Invalid parse request", err, "process_id", processID)
		writeError(w, apperrors.GetStatusCode(err), err.Error())
		return
	}

	pdfResult, err := h.processor.ProcessPDF(r.Context(), *source)
	if err != nil {
		h.logger.Error("PDF processing failed", err, "process_id", processID)
		writeError(w, apperrors.GetStatusCode(err), "PDF processing failed: "+rootMessage(err))
		return
	}

	if !pdfResult.IsResume {
		notResume := apperrors.NewNotResumeError("The provided document does not appear to be a resume. Please ensure you're uploading a valid resume.")
		h.logger.Warn("Document is not a resume", "process_id", processID)
		writeJSON(w, apperrors.GetStatusCode(notResume), notResumeResponse{
			Status:    false,
			Code:      "NOT_RESUME",
			Message:   notResume.Message,
			ProcessID: processID,
		})
		return
	}

	// The embedding call is optional: failures degrade the response but the
	// request still succeeds.
	var embedding *domain.EmbeddingOutput
	embedding, err = h.ai.GetEmbedding(r.Context(), pdfResult.CleanedText)
	if err != nil && !errors.Is(err, domain.ErrEmbeddingOff) {
		h.logger.Warn("Embedding generation failed", "process_id", processID, "error", err)
	}

	extraction, err := h.ai.ExtractResumeInfo(r.Context(), pdfResult.CleanedText)
	if err != nil {
		h.logger.Error("Information extraction failed", err, "process_id", processID)
		writeError(w, http.StatusInternalServerError, "Information extraction failed: "+rootMessage(err))
		return
	}

	processingTime := time.Since(start).Seconds()
	h.logger.Info("Processing completed", "process_id", processID, "seconds", processingTime)

	response := domain.ResumeResponse{
		ProcessID:      processID,
		Status:         domain.StatusCompleted,
		ProcessingTime: processingTime,
		RawText:        pdfResult.CleanedText,
		ExtractedInfo:  extraction.Info,
		Links:          pdfResult.Links,
		TokenMetrics: domain.TokenMetrics{
			ExtractionTokens: extraction.TokenCount,
		},
		ModelsUsed: domain.ModelsUsed{
			Extraction: extraction.Model,
		},
	}
	if embedding != nil {
		response.VectorEmbedding = embedding.Embedding
		response.TokenMetrics.EmbeddingTokens = embedding.TokenCount
		model := embedding.Model
		response.ModelsUsed.Embedding = &model
	}

	writeJSON(w, http.StatusOK, response)
}

// GetMetrics returns AI service usage counters.
func (h *ResumeHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ai.Metrics())
}

// resolveSource builds the PDFSource from a multipart upload, a "url" form
// value or a JSON body. Uploads must be .pdf and within the size limit.
func (h *ResumeHandler) resolveSource(r *http.Request) (*domain.PDFSource, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			return nil, apperrors.NewValidationError("file or url is required")
		}
		return &domain.PDFSource{URL: body.URL}, nil
	}

	if err := r.ParseMultipartForm(h.config.GetMaxFileSize()); err != nil {
		// Not multipart; fall through to a plain form URL.
		if url := r.FormValue("url"); url != "" {
			return &domain.PDFSource{URL: url}, nil
		}
		return nil, apperrors.NewValidationError("file or url is required")
	}

	if url := r.FormValue("url"); url != "" {
		return &domain.PDFSource{URL: url}, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.NewValidationError("file or url is required")
	}

	filename := strings.TrimSpace(filepath.Base(header.Filename))
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		file.Close()
		return nil, apperrors.NewValidationError("Only PDF files are supported")
	}
	if header.Size > h.config.GetMaxFileSize() {
		file.Close()
		return nil, apperrors.NewValidationError("File too large")
	}

	return &domain.PDFSource{
		Reader:   file,
		Filename: filename,
		Size:     header.Size,
	}, nil
}

// rootMessage unwraps AppError causes down to a displayable message.
func rootMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
