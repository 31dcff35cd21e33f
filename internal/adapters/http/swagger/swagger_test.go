package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	Register(context.Background(), mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/api-docs status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "redoc") {
		t.Fatal("/api-docs does not render ReDoc")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/openapi.yaml status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, path := range []string{"/leaderboard", "/update-name", "/stats", "/healthz"} {
		if !strings.Contains(body, path) {
			t.Errorf("spec missing path %s", path)
		}
	}
}

func TestRegisterNilMuxPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Register(nil) did not panic")
		}
	}()
	Register(context.Background(), nil)
}
