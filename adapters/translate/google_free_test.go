package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestParseTranslation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "single segment",
			body: `[[["I am sad","मैं दुखी हूं",null,null,10]],null,"hi"]`,
			want: "I am sad",
		},
		{
			name: "multiple segments",
			body: `[[["Hello. ","नमस्ते।",null,null,3],["How are you?","आप कैसे हैं?",null,null,3]],null,"hi"]`,
			want: "Hello. How are you?",
		},
		{
			name: "empty outer entry",
			body: `[[],null,"hi"]`,
			want: "",
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranslation([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTranslation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGoogleFreeTranslator_Translate(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"client": q.Get("client"),
			"sl":     q.Get("sl"),
			"tl":     q.Get("tl"),
			"dt":     q.Get("dt"),
			"q":      q.Get("q"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[["I am worried","मुझे चिंता है",null,null,10]],null,"hi"]`))
	}))
	defer server.Close()

	translator := NewGoogleFreeTranslator(GoogleFreeConfig{Endpoint: server.URL}, zaptest.NewLogger(t))

	got, err := translator.Translate(context.Background(), "मुझे चिंता है", "hi", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "I am worried" {
		t.Errorf("Expected translation, got %q", got)
	}

	if gotQuery["client"] != "gtx" || gotQuery["sl"] != "hi" || gotQuery["tl"] != "en" || gotQuery["dt"] != "t" {
		t.Errorf("Unexpected query: %v", gotQuery)
	}
	if gotQuery["q"] != "मुझे चिंता है" {
		t.Errorf("Expected original text in q, got %q", gotQuery["q"])
	}
}

func TestGoogleFreeTranslator_EmptyResultKeepsOriginal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[],null,"hi"]`))
	}))
	defer server.Close()

	translator := NewGoogleFreeTranslator(GoogleFreeConfig{Endpoint: server.URL}, zaptest.NewLogger(t))

	got, err := translator.Translate(context.Background(), "नमस्ते", "hi", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "नमस्ते" {
		t.Errorf("Expected original text, got %q", got)
	}
}

func TestGoogleFreeTranslator_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	translator := NewGoogleFreeTranslator(GoogleFreeConfig{Endpoint: server.URL}, zaptest.NewLogger(t))

	if _, err := translator.Translate(context.Background(), "नमस्ते", "hi", "en"); err == nil {
		t.Error("Expected error for non-OK status")
	}
}
