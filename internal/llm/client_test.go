// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/paperflow/internal/httputil"
)

func fastRetry(attempts int) httputil.Policy {
	return httputil.Policy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func chatJSON(content, reasoning string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content, "reasoning_content": reasoning}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestChatSuccess(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(chatJSON("  the reply  ", "")))
	}))
	defer srv.Close()

	c := &HTTPClient{APIURL: srv.URL, APIKey: "secret", Model: "test-model", Retry: fastRetry(1)}
	reply, err := c.Chat(context.Background(), "hello", 0.7, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "the reply" {
		t.Errorf("reply = %q", reply)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq["model"] != "test-model" {
		t.Errorf("model = %v", gotReq["model"])
	}
	if gotReq["temperature"] != 0.7 {
		t.Errorf("temperature = %v", gotReq["temperature"])
	}
}

func TestChatNoAuthHeaderForNoneKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(chatJSON("ok", "")))
	}))
	defer srv.Close()

	c := &HTTPClient{APIURL: srv.URL, APIKey: "none", Retry: fastRetry(1)}
	if _, err := c.Chat(context.Background(), "p", 0, 100); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("auth header = %q, want none", gotAuth)
	}
}

func TestChatReasoningContentFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatJSON("", "fallback text")))
	}))
	defer srv.Close()

	c := &HTTPClient{APIURL: srv.URL, Retry: fastRetry(1)}
	reply, err := c.Chat(context.Background(), "p", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "fallback text" {
		t.Errorf("reply = %q", reply)
	}
}

func TestChatRetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatJSON("recovered", "")))
	}))
	defer srv.Close()

	c := &HTTPClient{APIURL: srv.URL, Retry: fastRetry(3)}
	reply, err := c.Chat(context.Background(), "p", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "recovered" || calls != 2 {
		t.Errorf("reply = %q after %d calls", reply, calls)
	}
}

func TestChatExhaustedRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &HTTPClient{APIURL: srv.URL, Retry: fastRetry(2)}
	if _, err := c.Chat(context.Background(), "p", 0, 100); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestChatMissingURL(t *testing.T) {
	c := &HTTPClient{Retry: fastRetry(1)}
	if _, err := c.Chat(context.Background(), "p", 0, 100); err == nil {
		t.Fatal("expected error for unconfigured api url")
	}
}
