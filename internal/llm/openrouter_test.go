package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantErr bool
		wantID  string
	}{
		{"vendor-prefixed model kept as-is", OpenRouterConfig{APIKey: "sk-or-test", Model: "google/gemini-2.5-flash"}, false, "google/gemini-2.5-flash"},
		{"friendly gemini name mapped", OpenRouterConfig{APIKey: "sk-or-test", Model: "gemini-flash"}, false, "google/gemini-2.5-flash"},
		{"unknown names pass through", OpenRouterConfig{APIKey: "sk-or-test", Model: "gpt-4o-mini"}, false, "gpt-4o-mini"},
		{"missing key", OpenRouterConfig{Model: "google/gemini-2.5-flash"}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.ModelID() != tt.wantID {
				t.Errorf("ModelID() = %q, want %q", p.ModelID(), tt.wantID)
			}
		})
	}
}

func TestOpenRouterProvider_UsesConfiguredBaseURL(t *testing.T) {
	var gotPath, gotModel, gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("X-Title")
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "¿Qué número sumas a 5?"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 9, "completion_tokens": 7, "total_tokens": 16},
		})
	}))
	defer server.Close()

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.5-flash",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Translate."}},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotModel != "google/gemini-2.5-flash" {
		t.Errorf("model = %q", gotModel)
	}
	if gotTitle != "ESLens" {
		t.Errorf("X-Title = %q", gotTitle)
	}
	if resp.Text() != "¿Qué número sumas a 5?" || resp.Usage.TotalTokens != 16 {
		t.Errorf("unexpected response %+v", resp)
	}
}
