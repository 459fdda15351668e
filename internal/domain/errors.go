package domain

import "errors"

// Domain errors
var (
	ErrEmbeddingOff   = errors.New("embedding generation is disabled")
	ErrMissingAPIKey  = errors.New("OPENAI_API_KEY must be set")
	ErrOCRUnavailable = errors.New("tesseract binary not found")
)
