package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Format(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"validation", func(w http.ResponseWriter) { ValidationError(w, "bad") }, http.StatusBadRequest, CodeValidationError},
		{"not image", func(w http.ResponseWriter) { NotImage(w, "bad") }, http.StatusBadRequest, CodeNotImage},
		{"too large", func(w http.ResponseWriter) { FileTooLarge(w, "bad") }, http.StatusRequestEntityTooLarge, CodeFileTooLarge},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "bad") }, http.StatusNotFound, CodeNotFound},
		{"method not allowed", func(w http.ResponseWriter) { MethodNotAllowed(w, "bad") }, http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "bad") }, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("ошибка декодирования: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, ожидался %q", body.Error.Code, tt.wantCode)
			}
			if body.Detail != "bad" || body.Error.Message != "bad" {
				t.Errorf("detail/message = %q/%q, ожидалось bad", body.Detail, body.Error.Message)
			}
		})
	}
}
