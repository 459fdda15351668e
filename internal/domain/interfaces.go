package domain

import "context"

// ResumeProcessor defines the PDF processing pipeline entry point
type ResumeProcessor interface {
	ProcessPDF(ctx context.Context, source PDFSource) (*PDFContent, error)
}

// TextExtractor defines the text/table/OCR extraction step
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfPath string) (*ExtractionResult, error)
}

// LinkExtractor defines annotation hyperlink discovery
type LinkExtractor interface {
	ExtractHyperlinks(pdfPath string) ([]string, error)
}

// ResumeAI defines the language-model operations used per request
type ResumeAI interface {
	ExtractResumeInfo(ctx context.Context, resumeText string) (*ExtractionOutput, error)
	GetEmbedding(ctx context.Context, text string) (*EmbeddingOutput, error)
	Metrics() AIMetrics
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetAllowedFileTypes() []string
	GetOpenAIConfig() OpenAIConfig
	GetPDFConfig() PDFProcessingConfig
	Validate() error
}
