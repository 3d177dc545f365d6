package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collectedworks/backend/internal/rag"
	"github.com/collectedworks/backend/services/providers"
)

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter(Config{APIKey: "test-key"})

	if adapter == nil {
		t.Fatal("NewAdapter() returned nil")
	}
	if adapter.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", adapter.Name())
	}
	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}
	if adapter.Model() != defaultModel {
		t.Errorf("Model() = %s, want %s", adapter.Model(), defaultModel)
	}
}

func TestGenerate(t *testing.T) {
	var got chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "The shadow is the unlived side of the personality [1]."},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 210, "completion_tokens": 28, "total_tokens": 238},
		})
	}))
	defer server.Close()

	adapter := NewAdapter(Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "gpt-4o-mini",
		MaxTokens: 500,
	})

	gen, err := adapter.Generate(context.Background(), "system instruction", []rag.Message{
		{Role: "user", Content: "What is the shadow?"},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if gen.Text != "The shadow is the unlived side of the personality [1]." {
		t.Errorf("unexpected answer text: %q", gen.Text)
	}
	if gen.FinishReason != "stop" {
		t.Errorf("finish reason = %q, want stop", gen.FinishReason)
	}
	if gen.PromptTokens != 210 || gen.CompletionTokens != 28 {
		t.Errorf("usage = %d/%d, want 210/28", gen.PromptTokens, gen.CompletionTokens)
	}

	// System instruction is always the first message; conversation follows.
	if len(got.Messages) != 2 {
		t.Fatalf("got %d wire messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "system instruction" {
		t.Errorf("first message = %+v, want system instruction", got.Messages[0])
	}
	if got.Messages[1].Role != "user" {
		t.Errorf("second message role = %q, want user", got.Messages[1].Role)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 500 {
		t.Error("max_tokens not forwarded")
	}
}

func TestGenerateErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Incorrect API key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	adapter := NewAdapter(Config{APIKey: "bad", BaseURL: server.URL, MaxRetries: 0})

	_, err := adapter.Generate(context.Background(), "system", []rag.Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error")
	}
	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("error type = %T, want *providers.ProviderError", err)
	}
	if provErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", provErr.StatusCode)
	}
	if provErr.Retryable {
		t.Error("401 should not be retryable")
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	adapter := NewAdapter(Config{APIKey: "k", BaseURL: server.URL})

	_, err := adapter.Generate(context.Background(), "system", []rag.Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
