package nlsql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIModelGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Errorf("model = %v", payload["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "SELECT 1;"}},
			},
		})
	}))
	defer server.Close()

	model, err := NewOpenAIModel(OpenAIConfig{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOpenAIModel() error = %v", err)
	}
	got, err := model.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT 1;" {
		t.Fatalf("Generate() = %q", got)
	}
}

func TestOpenAIModelErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	model, err := NewOpenAIModel(OpenAIConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIModel() error = %v", err)
	}
	if _, err := model.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("Generate() error = nil, want failure")
	} else if !strings.Contains(err.Error(), "status=429") {
		t.Fatalf("error = %v", err)
	}
}

func TestNewOpenAIModelRequiresKey(t *testing.T) {
	if _, err := NewOpenAIModel(OpenAIConfig{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewOpenAIModel(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
