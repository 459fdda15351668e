package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
)

func aiConfig(baseURL string) domain.OpenAIConfig {
	return domain.OpenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        baseURL,
		DefaultModel:   "gpt-4o-mini",
		EmbeddingModel: "text-embedding-ada-002",
		MaxTokens:      5000,
		Temperature:    0.1,
		MaxRetries:     1,
		RequestTimeout: 5,
	}
}

func chatResponse(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestExtractResumeInfo(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(chatResponse(`{"name": "Jane Doe", "skills": ["Go"], "companies": []}`)))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL), NewMockLogger())

	out, err := svc.ExtractResumeInfo(context.Background(), "experience education skills projects")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Info["name"] != "Jane Doe" {
		t.Fatalf("expected name Jane Doe, got %v", out.Info["name"])
	}
	if out.Model != "gpt-4o-mini" {
		t.Fatalf("expected model recorded, got %q", out.Model)
	}
	if out.TokenCount <= 0 {
		t.Fatalf("expected a positive token count, got %d", out.TokenCount)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	format, _ := gotBody["response_format"].(map[string]interface{})
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", gotBody["response_format"])
	}
	messages, _ := gotBody["messages"].([]interface{})
	if len(messages) != 3 {
		t.Fatalf("expected system + prompt + resume messages, got %d", len(messages))
	}
}

func TestExtractResumeInfo_RepairsWrappedJSON(t *testing.T) {
	wrapped := "Here is the parsed resume:\n```json\n{\"name\": \"Jane\", \"companies\": []}\n```\nDone."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(wrapped)))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL), NewMockLogger())

	out, err := svc.ExtractResumeInfo(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("expected wrapped JSON to be repaired, got %v", err)
	}
	if out.Info["name"] != "Jane" {
		t.Fatalf("expected repaired payload, got %v", out.Info)
	}
}

func TestExtractResumeInfo_UnparseableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("I could not parse this resume, sorry.")))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL), NewMockLogger())

	if _, err := svc.ExtractResumeInfo(context.Background(), "resume text"); err == nil {
		t.Fatalf("expected an error for a response with no JSON object")
	}
}

func TestExtractResumeInfo_RetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatResponse(`{"name": "Jane", "companies": []}`)))
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.MaxRetries = 2
	svc := NewAIService(cfg, NewMockLogger())

	out, err := svc.ExtractResumeInfo(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if out.Info["name"] != "Jane" {
		t.Fatalf("unexpected payload after retry: %v", out.Info)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly 2 upstream calls, got %d", calls)
	}
}

func TestExtractResumeInfo_BadRequestNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.MaxRetries = 3
	svc := NewAIService(cfg, NewMockLogger())

	if _, err := svc.ExtractResumeInfo(context.Background(), "resume text"); err == nil {
		t.Fatalf("expected an error for HTTP 400")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("HTTP 400 must not be retried, got %d calls", calls)
	}
}

func TestApplyExperience(t *testing.T) {
	svc := NewAIService(aiConfig("http://unused"), NewMockLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

	info := domain.ExtractedInfo{
		"companies": []interface{}{
			map[string]interface{}{
				"company_name": "Acme",
				"start_date":   map[string]interface{}{"year": "2020", "month": "01"},
				"end_date":     map[string]interface{}{"year": "2021", "month": "07"},
				"is_current":   false,
			},
			map[string]interface{}{
				"company_name": "Globex",
				"start_date":   map[string]interface{}{"year": "2024", "month": "01"},
				"end_date":     map[string]interface{}{"year": "Not Available", "month": "Not Available"},
				"is_current":   true,
			},
		},
	}

	svc.applyExperience(info)

	companies := info["companies"].([]interface{})
	first := companies[0].(map[string]interface{})
	if first["total_experience_in_months"] != 18 {
		t.Fatalf("expected 18 months at Acme, got %v", first["total_experience_in_months"])
	}
	second := companies[1].(map[string]interface{})
	if second["total_experience_in_months"] != 5 {
		t.Fatalf("expected 5 months at Globex (current role), got %v", second["total_experience_in_months"])
	}
	if info["total_experience_in_months"] != 23 {
		t.Fatalf("expected 23 total months, got %v", info["total_experience_in_months"])
	}
	if info["is_fresher"] != false {
		t.Fatalf("23 months is not a fresher")
	}
}

func TestApplyExperience_Fresher(t *testing.T) {
	svc := NewAIService(aiConfig("http://unused"), NewMockLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

	info := domain.ExtractedInfo{
		"companies": []interface{}{
			map[string]interface{}{
				"company_name": "Acme",
				"start_date":   map[string]interface{}{"year": "2024", "month": "01"},
				"end_date":     map[string]interface{}{"year": "2024", "month": "06"},
				"is_current":   false,
			},
		},
	}

	svc.applyExperience(info)

	if info["total_experience_in_months"] != 5 {
		t.Fatalf("expected 5 total months, got %v", info["total_experience_in_months"])
	}
	if info["is_fresher"] != true {
		t.Fatalf("5 months of experience is a fresher")
	}
}

func TestApplyExperience_UnparseableDates(t *testing.T) {
	svc := NewAIService(aiConfig("http://unused"), NewMockLogger())

	info := domain.ExtractedInfo{
		"companies": []interface{}{
			map[string]interface{}{
				"company_name": "Acme",
				"start_date":   "Not Available",
				"end_date":     "Not Available",
				"is_current":   false,
			},
		},
	}

	svc.applyExperience(info)

	company := info["companies"].([]interface{})[0].(map[string]interface{})
	if company["total_experience_in_months"] != 0 {
		t.Fatalf("unparseable dates must contribute zero months, got %v", company["total_experience_in_months"])
	}
	if info["is_fresher"] != true {
		t.Fatalf("zero months is a fresher")
	}
}

func TestGetEmbedding_Disabled(t *testing.T) {
	cfg := aiConfig("http://unused")
	cfg.GenerateEmbeddings = false
	svc := NewAIService(cfg, NewMockLogger())

	_, err := svc.GetEmbedding(context.Background(), "resume text")
	if !errors.Is(err, domain.ErrEmbeddingOff) {
		t.Fatalf("expected ErrEmbeddingOff, got %v", err)
	}
}

func TestGetEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`))
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.GenerateEmbeddings = true
	svc := NewAIService(cfg, NewMockLogger())

	out, err := svc.GetEmbedding(context.Background(), "line one\nline two")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out.Embedding) != 3 {
		t.Fatalf("expected 3-dim embedding, got %v", out.Embedding)
	}
	if out.Model != "text-embedding-ada-002" {
		t.Fatalf("expected embedding model recorded, got %q", out.Model)
	}
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"name": "Jane", "companies": []}`)))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL), NewMockLogger())

	if _, err := svc.ExtractResumeInfo(context.Background(), "resume text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	metrics := svc.Metrics()
	if metrics.APICalls != 1 {
		t.Fatalf("expected 1 API call, got %d", metrics.APICalls)
	}
	if metrics.Errors != 0 {
		t.Fatalf("expected no errors, got %d", metrics.Errors)
	}
	if metrics.SuccessRate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %f", metrics.SuccessRate)
	}
	if metrics.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	if metrics.TotalTokens <= 0 {
		t.Fatalf("expected token usage recorded, got %d", metrics.TotalTokens)
	}
}

func TestRepairJSON(t *testing.T) {
	direct, err := repairJSON(`{"name": "Jane"}`)
	if err != nil || direct["name"] != "Jane" {
		t.Fatalf("expected direct parse, got %v (%v)", direct, err)
	}

	sliced, err := repairJSON("noise before {\"name\": \"Jane\"} noise after")
	if err != nil || sliced["name"] != "Jane" {
		t.Fatalf("expected sliced parse, got %v (%v)", sliced, err)
	}

	if _, err := repairJSON("no braces at all"); err == nil {
		t.Fatalf("expected an error when no object is present")
	}
}
