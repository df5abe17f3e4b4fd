package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/upload", "/upload"},
		{"/images", "/images"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/images/42", "/images/{id}"},
		{"/images/42/delete", "/images/{id}/delete"},
		{"/images/abc/delete", "/images/{id}/delete"},
		{"/images/0b6c5a3e-1f2d-4c7a-9e8b-5d4c3b2a1f00.jpg", "/images/{file}"},
		{"/images/", "other"},
		{"/images/a/b", "other"},
		{"/unknown", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, ожидался %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/7", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидался %d", rec.Code, http.StatusTeapot)
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{"успех", "/images", http.StatusOK, "level=INFO"},
		{"ошибка клиента", "/images/9", http.StatusNotFound, "level=WARN"},
		{"ошибка сервера", "/upload", http.StatusInternalServerError, "level=ERROR"},
		{"health", "/health", http.StatusOK, "level=DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("лог %q не содержит %q", out, tt.wantLevel)
			}
			if !strings.Contains(out, "bytes=5") {
				t.Errorf("лог %q не содержит размер ответа", out)
			}
		})
	}
}
