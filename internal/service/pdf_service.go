package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
	apperrors "github.com/vishwajeetdabholkar/resume-parser-api/pkg/errors"
)

// PDFService orchestrates the extraction pipeline for one request:
// materialize the source into a temp file, extract text and hyperlinks,
// union the link sets, and always remove the temp file.
type PDFService struct {
	extractor  domain.TextExtractor
	hyperlinks domain.LinkExtractor
	cfg        domain.PDFProcessingConfig
	httpClient *http.Client
	logger     domain.Logger
}

// NewPDFService creates a new PDF service instance
func NewPDFService(
	extractor domain.TextExtractor,
	hyperlinks domain.LinkExtractor,
	cfg domain.PDFProcessingConfig,
	logger domain.Logger,
) *PDFService {
	timeout := secondsDuration(cfg.DownloadTimeout)
	return &PDFService{
		extractor:  extractor,
		hyperlinks: hyperlinks,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ProcessPDF processes a PDF from either an upload stream or a remote URL.
func (s *PDFService) ProcessPDF(ctx context.Context, source domain.PDFSource) (*domain.PDFContent, error) {
	s.logger.Info("Starting PDF processing", "filename", source.Filename, "url", source.URL)

	tmpPath, err := s.materialize(ctx, source)
	if tmpPath != "" {
		// The temp file is request-scoped and must go away on every exit path.
		defer os.Remove(tmpPath)
	}
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.ExtractText(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	var hyperlinks []string
	if s.cfg.EnableLinkExtraction {
		hyperlinks, err = s.hyperlinks.ExtractHyperlinks(tmpPath)
		if err != nil {
			return nil, apperrors.NewProcessingError("hyperlink extraction failed", err)
		}
	}

	allLinks := unionLinks(result.Links, hyperlinks)

	s.logger.Info("PDF processing completed", "links", len(allLinks), "is_resume", result.IsResume)
	return &domain.PDFContent{
		CleanedText: result.CleanedText,
		Links:       allLinks,
		IsResume:    result.IsResume,
	}, nil
}

// materialize writes the source into a fresh temp file and returns its path.
// The path is returned even when a later step fails so the caller can clean up.
func (s *PDFService) materialize(ctx context.Context, source domain.PDFSource) (string, error) {
	tmpFile, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return "", apperrors.NewInternalError("failed to create temp file", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	if source.URL != "" {
		if !strings.HasPrefix(source.URL, "http://") && !strings.HasPrefix(source.URL, "https://") {
			return tmpPath, apperrors.NewValidationError("source URL must be http or https")
		}
		s.logger.Info("Downloading PDF from URL", "url", source.URL)
		if err := s.download(ctx, source.URL, tmpFile); err != nil {
			return tmpPath, err
		}
		return tmpPath, nil
	}

	if source.Reader == nil {
		return tmpPath, apperrors.NewValidationError("no PDF source provided")
	}
	s.logger.Info("Writing uploaded PDF to temp file", "filename", source.Filename)
	if _, err := io.Copy(tmpFile, source.Reader); err != nil {
		return tmpPath, apperrors.NewInternalError("failed to store upload", err)
	}
	return tmpPath, nil
}

func (s *PDFService) download(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewNetworkError("invalid source URL", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("failed to download PDF", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewNetworkError(fmt.Sprintf("PDF download returned status %d", resp.StatusCode), nil)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return apperrors.NewNetworkError("failed to read PDF body", err)
	}
	return nil
}

// secondsDuration converts a fractional-seconds config value to a Duration.
func secondsDuration(s float64) time.Duration {
	if s <= 0 {
		s = 30
	}
	return time.Duration(s * float64(time.Second))
}
