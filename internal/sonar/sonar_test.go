package sonar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

var testLog = zerolog.Nop()

func chatBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		gotBody = payload["model"].(string)
		w.Write([]byte(chatBody("all good")))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	got, err := c.Complete(context.Background(), &testLog, Request{System: "sys", Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "all good" {
		t.Errorf("content = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody != DefaultModel {
		t.Errorf("model = %q", gotBody)
	}
}

func TestCompleteSendsSchema(t *testing.T) {
	var payload struct {
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.Write([]byte(chatBody("{}")))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.Complete(context.Background(), &testLog, Request{
		Prompt: "plan please",
		Format: FormatJSON,
		Schema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ResponseFormat == nil || payload.ResponseFormat.Type != "json_schema" {
		t.Errorf("response_format not sent: %+v", payload.ResponseFormat)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(chatBody("second time lucky")))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	got, err := c.Complete(context.Background(), &testLog, Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second time lucky" {
		t.Errorf("content = %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for several seconds")
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.Complete(context.Background(), &testLog, Request{Prompt: "hello"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if calls.Load() != maxRetries {
		t.Errorf("expected %d attempts, got %d", maxRetries, calls.Load())
	}
}

func TestCompleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.Complete(context.Background(), &testLog, Request{Prompt: "hello"})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1")
	_, err := c.Complete(context.Background(), &testLog, Request{Prompt: "hello"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
