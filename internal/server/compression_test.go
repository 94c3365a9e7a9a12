package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		contentType  string
		acceptGzip   bool
		upgrade      string
		wantEncoding string
	}{
		{name: "html", contentType: "text/html; charset=utf-8", acceptGzip: true, wantEncoding: "gzip"},
		{name: "json", contentType: "application/json", acceptGzip: true, wantEncoding: "gzip"},
		{name: "javascript", contentType: "application/javascript", acceptGzip: true, wantEncoding: "gzip"},
		{name: "image skipped", contentType: "image/png", acceptGzip: true},
		{name: "client without gzip", contentType: "text/html", acceptGzip: false},
		{name: "websocket upgrade", contentType: "text/plain", acceptGzip: true, upgrade: "websocket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const payload = "hello hello hello hello"
			h := WithCompression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				io.WriteString(w, payload)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip, deflate")
			}
			if tt.upgrade != "" {
				req.Header.Set("Upgrade", tt.upgrade)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if got := w.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Content-Encoding: expected %q, got %q", tt.wantEncoding, got)
			}

			body := w.Body.String()
			if tt.wantEncoding == "gzip" {
				gz, err := gzip.NewReader(w.Body)
				if err != nil {
					t.Fatalf("gzip reader: %v", err)
				}
				raw, err := io.ReadAll(gz)
				if err != nil {
					t.Fatalf("read gzip body: %v", err)
				}
				body = string(raw)
			}
			if body != payload {
				t.Errorf("body: expected %q, got %q", payload, body)
			}
		})
	}
}

func TestCompressionSkipsNoContent(t *testing.T) {
	h := WithCompression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("expected no Content-Encoding, got %q", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %d bytes", w.Body.Len())
	}
}
