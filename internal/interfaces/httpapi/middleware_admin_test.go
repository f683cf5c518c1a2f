package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAdminToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{name: "not configured", configured: "", header: "Bearer secret", want: http.StatusNotFound},
		{name: "missing header", configured: "secret", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", configured: "secret", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong token", configured: "secret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", configured: "secret", header: "bearer secret", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/crosswalk/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			RequireAdminToken(tt.configured, next).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
