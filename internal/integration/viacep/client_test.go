package viacep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup_KnownCEP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/01310100/json/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	addr, err := client.Lookup(context.Background(), "01310100")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if addr.Street != "Avenida Paulista" {
		t.Errorf("Expected Avenida Paulista, got %s", addr.Street)
	}
	if addr.State != "SP" {
		t.Errorf("Expected SP, got %s", addr.State)
	}
}

func TestLookup_UnknownCEP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ViaCEP answers 200 with an erro flag for unknown codes
		w.Write([]byte(`{"erro": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Lookup(context.Background(), "99999999")
	if !errors.Is(err, ErrCEPNotFound) {
		t.Errorf("Expected ErrCEPNotFound, got %v", err)
	}
}

func TestLookup_InvalidFormat(t *testing.T) {
	client := NewClient("http://unused")

	for _, cep := range []string{"", "0131010", "013101000", "01310-10"} {
		if _, err := client.Lookup(context.Background(), cep); !errors.Is(err, ErrInvalidCEP) {
			t.Errorf("Expected ErrInvalidCEP for %q, got %v", cep, err)
		}
	}
}

func TestLookup_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Lookup(context.Background(), "01310100")
	if !errors.Is(err, ErrLookupFailed) {
		t.Errorf("Expected ErrLookupFailed, got %v", err)
	}
}
