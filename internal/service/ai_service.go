package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"

	"github.com/pkoukk/tiktoken-go"
)

const systemPrompt = `You are an expert resume parser. Your task is to extract information from resumes and return it in a specific JSON format.
- ONLY return the JSON object, no other text.
- All dates must be in YYYY-MM format.
- If a value is not found, use appropriate default values ('Not Available' for strings, [] for arrays).
- Ensure all JSON keys and values are properly quoted.
- Boolean values must be true or false (lowercase).
- Numbers must not be in quotes.`

const extractionPrompt = `Parse the following resume and return a JSON object with this exact structure:
{
    "name": "string",
    "email": ["string"],
    "mobile": ["string"],
    "address": {
        "city": "string",
        "state": "string",
        "country": "string"
    },
    "skills": ["string"],
    "companies": [{
        "company_name": "string",
        "start_date": {
            "year": "YYYY",
            "month": "MM"
        },
        "end_date": {
            "year": "YYYY",
            "month": "MM"
        },
        "designation": "string",
        "is_current": boolean
    }],
    "linkedin_url": "string",
    "github_url": "string",
    "education": [{
        "college_name": "string",
        "start_year": "YYYY",
        "end_year": "YYYY",
        "description": "string"
    }],
    "certifications": ["string"],
    "profile_name": "string",
    "achievements": [{
        "year": "YYYY",
        "title": "string",
        "description": "string"
    }]
}`

// fresherThresholdMonths: candidates under one year of aggregate experience
// are labelled freshers.
const fresherThresholdMonths = 12

// AIService talks to the OpenAI API for structured resume extraction and
// optional embeddings. It is stateless aside from configuration and the
// metrics counters.
type AIService struct {
	cfg        domain.OpenAIConfig
	httpClient *http.Client
	logger     domain.Logger
	sessionID  string
	now        func() time.Time

	mu          sync.Mutex
	totalTokens int
	apiCalls    int
	errCount    int
}

// NewAIService creates a new AI service instance
func NewAIService(cfg domain.OpenAIConfig, logger domain.Logger) *AIService {
	s := &AIService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: secondsDuration(cfg.RequestTimeout)},
		logger:     logger,
		sessionID:  fmt.Sprintf("ai_service_%d", time.Now().Unix()),
		now:        time.Now,
	}
	logger.Info("Initialized AI service", "session_id", s.sessionID, "model", cfg.DefaultModel)
	return s
}

// ExtractResumeInfo sends resume text to the chat-completion endpoint and
// returns the structured mapping, enriched with experience totals and the
// fresher flag.
func (s *AIService) ExtractResumeInfo(ctx context.Context, resumeText string) (*domain.ExtractionOutput, error) {
	tokenCount := s.countTokens(resumeText, s.cfg.DefaultModel)
	s.logger.Info("Extracting resume info", "tokens", tokenCount, "model", s.cfg.DefaultModel)

	body := map[string]interface{}{
		"model":           s.cfg.DefaultModel,
		"max_tokens":      s.cfg.MaxTokens,
		"temperature":     s.cfg.Temperature,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": extractionPrompt},
			{"role": "user", "content": "Resume text to parse:\n" + resumeText},
		},
	}

	s.recordCall()
	raw, err := s.postWithRetry(ctx, "/chat/completions", body)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &completion); err != nil {
		s.recordError()
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		s.recordError()
		return nil, fmt.Errorf("empty response from model")
	}

	content := completion.Choices[0].Message.Content
	s.logger.Debug("Raw model response", "prefix", truncate(content, 200))

	info, err := repairJSON(content)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("failed to parse extracted information: %w", err)
	}

	if err := validateResumeInfo(info); err != nil {
		// The model occasionally strays from the schema in optional fields;
		// the payload is still returned to the caller as-is.
		s.logger.Warn("Extracted info failed schema validation", "error", err)
	}

	s.applyExperience(info)

	return &domain.ExtractionOutput{
		Info:       info,
		TokenCount: tokenCount,
		Model:      s.cfg.DefaultModel,
	}, nil
}

// GetEmbedding generates an embedding for the text when enabled by
// configuration. Callers treat failures as degradation, not request failure.
func (s *AIService) GetEmbedding(ctx context.Context, text string) (*domain.EmbeddingOutput, error) {
	if !s.cfg.GenerateEmbeddings {
		s.logger.Debug("Embedding generation is disabled")
		return nil, domain.ErrEmbeddingOff
	}

	text = strings.ReplaceAll(text, "\n", " ")
	tokenCount := s.countTokens(text, s.cfg.EmbeddingModel)
	s.logger.Info("Generating embedding", "tokens", tokenCount, "model", s.cfg.EmbeddingModel)

	body := map[string]interface{}{
		"input": []string{text},
		"model": s.cfg.EmbeddingModel,
	}

	s.recordCall()
	raw, err := s.postWithRetry(ctx, "/embeddings", body)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		s.recordError()
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		s.recordError()
		return nil, fmt.Errorf("no embedding returned")
	}

	return &domain.EmbeddingOutput{
		Embedding:  result.Data[0].Embedding,
		TokenCount: tokenCount,
		Model:      s.cfg.EmbeddingModel,
	}, nil
}

// Metrics returns a snapshot of the service counters.
func (s *AIService) Metrics() domain.AIMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	successRate := 0.0
	if s.apiCalls > 0 {
		successRate = float64(s.apiCalls-s.errCount) / float64(s.apiCalls)
	}
	return domain.AIMetrics{
		SessionID:   s.sessionID,
		TotalTokens: s.totalTokens,
		APICalls:    s.apiCalls,
		Errors:      s.errCount,
		SuccessRate: successRate,
	}
}

// postWithRetry POSTs JSON to the OpenAI endpoint, retrying transient
// failures (network errors, 429 and 5xx) with exponential backoff.
func (s *AIService) postWithRetry(ctx context.Context, path string, body map[string]interface{}) ([]byte, error) {
	attempts := s.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			backoff := time.Duration(1<<(i-1)) * time.Second
			s.logger.Warn("Retrying OpenAI call", "path", path, "attempt", i+1, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, retryable, err := s.post(ctx, path, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *AIService) post(ctx context.Context, path string, body map[string]interface{}) (raw []byte, retryable bool, err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("openai http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(string(data), 300))
	}
	return data, false, nil
}

// countTokens counts tokens with tiktoken, falling back to a rough estimate
// when the encoding cannot be loaded (e.g. offline environments).
func (s *AIService) countTokens(text, model string) int {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	var count int
	if err != nil {
		s.logger.Warn("Token encoding unavailable, estimating", "model", model, "error", err)
		count = len(text) / 4
	} else {
		count = len(encoding.Encode(text, nil, nil))
	}

	s.mu.Lock()
	s.totalTokens += count
	s.mu.Unlock()
	return count
}

func (s *AIService) recordCall() {
	s.mu.Lock()
	s.apiCalls++
	s.mu.Unlock()
}

func (s *AIService) recordError() {
	s.mu.Lock()
	s.errCount++
	s.mu.Unlock()
}

// applyExperience computes per-company and total experience months and the
// fresher flag from the model's companies array. Companies with unparseable
// dates contribute zero months.
func (s *AIService) applyExperience(info domain.ExtractedInfo) {
	companies, ok := info["companies"].([]interface{})
	if !ok {
		return
	}

	current := s.now()
	totalMonths := 0

	for _, entry := range companies {
		company, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		startYear, startMonth := dateParts(company["start_date"])
		endYear, endMonth := dateParts(company["end_date"])
		if isCurrent, _ := company["is_current"].(bool); isCurrent {
			endYear = current.Year()
			endMonth = int(current.Month())
		}

		months := 0
		if startYear != 0 && startMonth != 0 && endYear != 0 && endMonth != 0 {
			months = (endYear-startYear)*12 + (endMonth - startMonth)
			if months < 0 {
				months = 0
			}
		} else {
			s.logger.Warn("Failed to process company dates", "company", company["company_name"])
		}
		company["total_experience_in_months"] = months
		totalMonths += months
	}

	info["total_experience_in_months"] = totalMonths
	info["is_fresher"] = totalMonths < fresherThresholdMonths
}

// dateParts pulls integer year/month out of a {"year": "YYYY", "month": "MM"} value.
func dateParts(v interface{}) (year, month int) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0, 0
	}
	return intField(m["year"]), intField(m["month"])
}

func intField(v interface{}) int {
	switch t := v.(type) {
	case string:
		n := 0
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%d", &n); err != nil {
			return 0
		}
		return n
	case float64:
		return int(t)
	default:
		return 0
	}
}

// repairJSON parses the model's response, slicing out the outermost JSON
// object when the model wrapped it in other text.
func repairJSON(raw string) (domain.ExtractedInfo, error) {
	var info domain.ExtractedInfo
	if err := json.Unmarshal([]byte(raw), &info); err == nil {
		return info, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no valid JSON structure found")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &info); err != nil {
		return nil, err
	}
	return info, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
