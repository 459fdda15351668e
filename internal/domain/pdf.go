package domain

import "io"

// PDFSource is a resume to process: either an already-open upload stream
// or a remote URL to download. Exactly one of Reader/URL is set.
type PDFSource struct {
	Reader   io.Reader
	URL      string
	Filename string
	Size     int64
}

// ExtractionResult is produced by the text/table/OCR extractor for one document.
// Immutable after creation; owned by the orchestrator for the request's lifetime.
type ExtractionResult struct {
	CleanedText string   `json:"cleaned_text"`
	Links       []string `json:"links"`
	IsResume    bool     `json:"is_resume"`
}

// PDFContent is the orchestrator's merged output: cleaned text plus the
// deduplicated union of plain-text and annotation links.
type PDFContent struct {
	CleanedText string   `json:"cleaned_text"`
	Links       []string `json:"links"`
	IsResume    bool     `json:"is_resume"`
}

// OpenAIConfig groups settings for the language-model provider
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	DefaultModel       string
	EmbeddingModel     string
	MaxTokens          int
	Temperature        float64
	MaxRetries         int
	RequestTimeout     float64 // seconds
	GenerateEmbeddings bool
}

// PDFProcessingConfig groups settings for the extraction pipeline
type PDFProcessingConfig struct {
	TesseractPath         string
	EnableOCR             bool
	EnableTableExtraction bool
	EnableLinkExtraction  bool
	DownloadTimeout       float64 // seconds
}
