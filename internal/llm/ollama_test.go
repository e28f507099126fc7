package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nkarpenko/slate/internal/model"
)

func TestOllamaGenerate_StreamsLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3.1:8b" || !req.Stream {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(
			`{"model":"llama3.1:8b","message":{"role":"assistant","content":"Water "},"done":false}` + "\n" +
				`{"model":"llama3.1:8b","message":{"role":"assistant","content":"boils."},"done":false}` + "\n" +
				`{"model":"llama3.1:8b","message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	gen, err := NewOllamaGenerator(model.LLMConfig{BaseURL: srv.URL, Model: "llama3.1:8b"})
	if err != nil {
		t.Fatal(err)
	}

	var got strings.Builder
	err = gen.Generate(context.Background(), []model.Message{
		{Role: model.RoleUser, Content: "q"},
	}, func(text string) { got.WriteString(text) }, Settings{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.String() != "Water boils." {
		t.Errorf("accumulated = %q", got.String())
	}
}

func TestOllamaGenerate_ErrorLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model not found"}` + "\n"))
	}))
	defer srv.Close()

	gen, err := NewOllamaGenerator(model.LLMConfig{BaseURL: srv.URL, Model: "missing"})
	if err != nil {
		t.Fatal(err)
	}

	err = gen.Generate(context.Background(), []model.Message{
		{Role: model.RoleUser, Content: "q"},
	}, func(string) {}, Settings{})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("err = %v, want ollama error line", err)
	}
}

func TestOllamaGenerate_RequiresModel(t *testing.T) {
	gen, err := NewOllamaGenerator(model.LLMConfig{})
	if err != nil {
		t.Fatal(err)
	}
	err = gen.Generate(context.Background(), nil, func(string) {}, Settings{})
	if err == nil || !strings.Contains(err.Error(), "model must be specified") {
		t.Errorf("err = %v, want model requirement", err)
	}
}

func TestNewGenerator(t *testing.T) {
	if gen, err := NewGenerator(model.LLMConfig{}); gen != nil || err != nil {
		t.Errorf("empty provider should disable generation, got %v, %v", gen, err)
	}

	if _, err := NewGenerator(model.LLMConfig{Provider: "bard"}); err == nil {
		t.Error("unknown provider should error")
	}

	if _, err := NewGenerator(model.LLMConfig{Provider: "openai"}); !IsAuthError(err) {
		t.Errorf("keyless openai should fail auth, got %v", err)
	}

	gen, err := NewGenerator(model.LLMConfig{Provider: "claude", APIKey: "k"})
	if err != nil || gen.Name() != "anthropic" {
		t.Errorf("claude alias: gen = %v, err = %v", gen, err)
	}

	gen, err = NewGenerator(model.LLMConfig{Provider: "ollama", Model: "llama3.1:8b"})
	if err != nil || gen.Name() != "ollama" {
		t.Errorf("ollama: gen = %v, err = %v", gen, err)
	}
}
