package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/techfix/techfix-backend/internal/config"
)

func TestDiagnose_NotConfigured(t *testing.T) {
	client := NewClient(config.AIConfig{})

	_, err := client.Diagnose(context.Background(), "iPhone 12", "Não liga")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestDiagnose_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[1].Role != "user" {
			t.Errorf("Expected system plus user messages, got %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Verificar a bateria e o conector de carga."}}]}`))
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL})

	text, err := client.Diagnose(context.Background(), "iPhone 12", "Não liga")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Verificar a bateria e o conector de carga." {
		t.Errorf("Unexpected diagnosis text: %s", text)
	}
}

func TestDiagnose_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Diagnose(context.Background(), "iPhone 12", "Não liga")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestDiagnose_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Diagnose(context.Background(), "iPhone 12", "Não liga")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed, got %v", err)
	}
}
