package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeneratePollsToCompletion(t *testing.T) {
	polls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			var payload struct {
				Version string          `json:"version"`
				Input   GenerationInput `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if payload.Version != "test-version" {
				t.Fatalf("version = %q", payload.Version)
			}
			if payload.Input.NumInferenceSteps != 50 || payload.Input.GuidanceScale != 7.5 {
				t.Fatalf("unexpected input: %+v", payload.Input)
			}
			if !strings.HasSuffix(payload.Input.Prompt, "Studio Ghibli quality") {
				t.Fatalf("prompt suffix missing: %q", payload.Input.Prompt)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/pred-1":
			polls++
			status := "processing"
			var output any
			if polls >= 2 {
				status = "succeeded"
				output = []string{"https://cdn.example.com/out.png"}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": status, "output": output})
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer ts.Close()

	client := NewClient(Options{
		BaseURL:      ts.URL,
		APIToken:     "test-token",
		ModelVersion: "test-version",
		PollInterval: time.Millisecond,
	})
	urls, err := client.Generate(context.Background(), GenerationInput{
		Prompt:            "a cat reading a newspaper, anime art style, detailed eyes, manga-inspired, dynamic composition, cel-shaded, Studio Ghibli quality",
		Width:             1024,
		Height:            1024,
		NumOutputs:        1,
		NumInferenceSteps: 50,
		GuidanceScale:     7.5,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example.com/out.png" {
		t.Fatalf("unexpected output: %v", urls)
	}
	if polls < 2 {
		t.Fatalf("expected at least 2 polls, got %d", polls)
	}
}

func TestGenerateFailedPrediction(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "failed", "error": "NSFW content detected"})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIToken: "test-token", ModelVersion: "v", PollInterval: time.Millisecond})
	_, err := client.Generate(context.Background(), GenerationInput{Prompt: "something"})
	if err == nil {
		t.Fatalf("expected error for failed prediction")
	}
	if !strings.Contains(err.Error(), "NSFW content detected") {
		t.Fatalf("provider message not surfaced: %v", err)
	}
}

func TestGenerateContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never reaches a terminal status.
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "processing"})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIToken: "test-token", ModelVersion: "v", PollInterval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, GenerationInput{Prompt: "something"})
	if err == nil {
		t.Fatalf("expected error when context expires")
	}
}

func TestGenerateSingleStringOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "succeeded", "output": "https://cdn.example.com/single.png"})
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIToken: "test-token", ModelVersion: "v", PollInterval: time.Millisecond})
	urls, err := client.Generate(context.Background(), GenerationInput{Prompt: "something"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example.com/single.png" {
		t.Fatalf("unexpected output: %v", urls)
	}
}

func TestGenerateMissingToken(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Generate(context.Background(), GenerationInput{Prompt: "x"}); err == nil {
		t.Fatalf("expected error when token missing")
	}
}

func TestGenerateAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "Invalid version"}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL, APIToken: "test-token", ModelVersion: "bad"})
	_, err := client.Generate(context.Background(), GenerationInput{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "Invalid version") {
		t.Fatalf("api detail not surfaced: %v", err)
	}
}
