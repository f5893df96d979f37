package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestFormatMessage(t *testing.T) {
	en := FormatMessage("EN", "Phone", "https://site.example/1")
	if !strings.Contains(en, "Title: Phone") || !strings.Contains(en, "URL: https://site.example/1") {
		t.Errorf("english message = %q", en)
	}
	pl := FormatMessage("pl", "Telefon", "https://site.example/1")
	if !strings.Contains(pl, "Tytuł: Telefon") || !strings.Contains(pl, "Link: https://site.example/1") {
		t.Errorf("polish message = %q", pl)
	}
	if got := FormatMessage("de", "x", "y"); got != FormatMessage("en", "x", "y") {
		t.Errorf("unknown language did not fall back to english: %q", got)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "en", zaptest.NewLogger(t))
	if err := n.Notify(context.Background(), "Phone", "https://site.example/1"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got.Title != "Phone" || got.URL != "https://site.example/1" || !strings.Contains(got.Text, "Title: Phone") {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhookNotifierFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "en", zaptest.NewLogger(t))
	if err := n.Notify(context.Background(), "Phone", "https://site.example/1"); err == nil {
		t.Fatal("Notify() returned nil error for a 500")
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier("pl", zaptest.NewLogger(t))
	if err := n.Notify(context.Background(), "Telefon", "https://site.example/1"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
}
