package service

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
	apperrors "github.com/vishwajeetdabholkar/resume-parser-api/pkg/errors"

	"github.com/gen2brain/go-fitz"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// PDFTextExtractor merges linear page text, serialized tables and OCR output
// into one cleaned, classified text blob.
type PDFTextExtractor struct {
	cfg    domain.PDFProcessingConfig
	ocr    *OCREngine
	logger domain.Logger
}

// NewTextExtractor creates the text/table/OCR extractor
func NewTextExtractor(cfg domain.PDFProcessingConfig, ocr *OCREngine, logger domain.Logger) *PDFTextExtractor {
	return &PDFTextExtractor{
		cfg:    cfg,
		ocr:    ocr,
		logger: logger,
	}
}

// ExtractText runs the extraction pipeline over the PDF at pdfPath. Any
// parsing failure is reported as a processing error; no partial result is
// surfaced as success.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, pdfPath string) (*domain.ExtractionResult, error) {
	e.logger.Info("Beginning text extraction", "path", pdfPath)

	// The image-page scan only feeds OCR; skipping it when OCR is off also
	// avoids failing documents the renderer would tolerate.
	var imagePages []int
	if e.cfg.EnableOCR {
		var err error
		imagePages, err = e.scanImagePages(pdfPath)
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to scan PDF pages", err)
		}
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to open PDF", err)
	}
	defer doc.Close()

	var extracted strings.Builder

	baseText, err := e.extractBaseText(doc)
	if err != nil {
		return nil, apperrors.NewProcessingError("text extraction failed", err)
	}
	extracted.WriteString(baseText)

	if e.cfg.EnableTableExtraction {
		tables, err := detectTables(pdfPath)
		if err != nil {
			return nil, apperrors.NewProcessingError("table extraction failed", err)
		}
		for _, table := range tables {
			e.logger.Debug("Appending serialized table", "rows", strings.Count(table, "\n")+1)
			extracted.WriteString(table)
			extracted.WriteString("\n\n")
		}
	}

	if e.cfg.EnableOCR && len(imagePages) > 0 {
		e.logger.Info("Processing pages with images using OCR", "pages", len(imagePages))
		ocrText, err := e.ocrPageSpan(ctx, doc, imagePages)
		if err != nil {
			return nil, apperrors.NewProcessingError("OCR failed", err)
		}
		extracted.WriteString(ocrText)
	}

	cleanedText := CleanText(extracted.String())
	isResume := IsResumeContent(cleanedText)

	links := []string{}
	if e.cfg.EnableLinkExtraction {
		links = ExtractPlainTextLinks(cleanedText)
	}

	e.logger.Info("Text extraction completed", "chars", len(cleanedText), "links", len(links), "is_resume", isResume)
	return &domain.ExtractionResult{
		CleanedText: cleanedText,
		Links:       links,
		IsResume:    isResume,
	}, nil
}

// scanImagePages returns zero-based indices of pages carrying raster images.
func (e *PDFTextExtractor) scanImagePages(pdfPath string) ([]int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfCtx, err := pdfapi.ReadValidateAndOptimize(f, pdfmodel.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var imagePages []int
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if len(pdfcpu.ImageObjNrs(pdfCtx, pageNr)) > 0 {
			e.logger.Debug("Found images on page", "page", pageNr)
			imagePages = append(imagePages, pageNr-1)
		}
	}
	return imagePages, nil
}

// extractBaseText pulls linear text from every page, newline separated.
func (e *PDFTextExtractor) extractBaseText(doc *fitz.Document) (string, error) {
	var sb strings.Builder
	numPages := doc.NumPage()
	const pageTimeout = 90 * time.Second

	type pageResult struct {
		text string
		err  error
	}

	for pageNum := 0; pageNum < numPages; pageNum++ {
		e.logger.Debug("Extracting text from page", "page", pageNum+1, "total", numPages)
		resultCh := make(chan pageResult, 1)
		go func(idx int) {
			t, err := doc.Text(idx)
			resultCh <- pageResult{text: t, err: err}
		}(pageNum)

		select {
		case res := <-resultCh:
			if res.err != nil {
				return "", fmt.Errorf("page %d: %w", pageNum+1, res.err)
			}
			sb.WriteString(res.text)
			sb.WriteString("\n")
		case <-time.After(pageTimeout):
			go func() { <-resultCh }() // drain so goroutine can exit
			return "", fmt.Errorf("page %d: timeout after %v", pageNum+1, pageTimeout)
		}
	}
	return sb.String(), nil
}

// ocrPageSpan rasterizes the contiguous span from the first to the last
// image-bearing page and OCRs each rendered page with a bounded worker pool.
// Interior pages without images are still rasterized; this mirrors how the
// page range is handed to the renderer in one request.
func (e *PDFTextExtractor) ocrPageSpan(ctx context.Context, doc *fitz.Document, imagePages []int) (string, error) {
	first, last := imagePages[0], imagePages[0]
	for _, p := range imagePages {
		if p < first {
			first = p
		}
		if p > last {
			last = p
		}
	}

	tmpDir, err := os.MkdirTemp("", "resume-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	// Rasterization goes through a single fitz handle, so it stays sequential;
	// only the tesseract calls fan out.
	imagePaths := make([]string, 0, last-first+1)
	for pageNum := first; pageNum <= last; pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			return "", fmt.Errorf("rasterize page %d: %w", pageNum+1, err)
		}
		imgPath := filepath.Join(tmpDir, fmt.Sprintf("page-%04d.png", pageNum+1))
		out, err := os.Create(imgPath)
		if err != nil {
			return "", err
		}
		if err := png.Encode(out, img); err != nil {
			out.Close()
			return "", fmt.Errorf("encode page %d: %w", pageNum+1, err)
		}
		out.Close()
		imagePaths = append(imagePaths, imgPath)
	}

	results := make([]string, len(imagePaths))
	sem := make(chan struct{}, runtime.NumCPU())
	g, gctx := errgroup.WithContext(ctx)
	for i, imgPath := range imagePaths {
		i, imgPath := i, imgPath
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}
			text, err := e.ocr.ImageToText(gctx, imgPath)
			if err != nil {
				return err
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Results are collected in submission order, not completion order.
	var sb strings.Builder
	for i, text := range results {
		e.logger.Debug("Added OCR text from page", "page", first+i+1)
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
