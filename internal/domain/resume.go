package domain

// ProcessingStatus represents the lifecycle state of a parse request
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
	StatusNotResume  ProcessingStatus = "not_resume"
)

// ExtractedInfo is the structured mapping produced by the language model.
// The schema is enforced at the AI service boundary; callers treat it as opaque.
type ExtractedInfo map[string]interface{}

// TokenMetrics reports token usage for one parse request
type TokenMetrics struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	ExtractionTokens int `json:"extraction_tokens"`
}

// ModelsUsed identifies which models produced each part of the response
type ModelsUsed struct {
	Embedding  *string `json:"embedding"`
	Extraction string  `json:"extraction"`
}

// ResumeResponse is the API-facing result of a successful parse
type ResumeResponse struct {
	ProcessID       string           `json:"process_id"`
	Status          ProcessingStatus `json:"status"`
	ProcessingTime  float64          `json:"processing_time"`
	RawText         string           `json:"raw_text"`
	ExtractedInfo   ExtractedInfo    `json:"extracted_info"`
	VectorEmbedding []float32        `json:"vector_embedding"`
	Links           []string         `json:"links"`
	TokenMetrics    TokenMetrics     `json:"token_metrics"`
	ModelsUsed      ModelsUsed       `json:"models_used"`
}

// ExtractionOutput is the AI service result for the structured-extraction call
type ExtractionOutput struct {
	Info       ExtractedInfo
	TokenCount int
	Model      string
}

// EmbeddingOutput is the AI service result for the optional embedding call
type EmbeddingOutput struct {
	Embedding  []float32
	TokenCount int
	Model      string
}

// AIMetrics is a snapshot of AI service counters since process start
type AIMetrics struct {
	SessionID   string  `json:"session_id"`
	TotalTokens int     `json:"total_tokens"`
	APICalls    int     `json:"api_calls"`
	Errors      int     `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
}
