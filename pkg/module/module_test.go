package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/pathfinder/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("New(%q) should panic", prefix)
				}
			}()
			module.New(prefix, http.NewServeMux())
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	inner := http.NewServeMux()
	var innerPath string
	inner.HandleFunc("GET /conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		innerPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	api := module.New("/api", inner)
	var order []string
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "middleware")
			next.ServeHTTP(w, r)
		})
	})

	router := module.NewRouter()
	router.Mount(api)
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"module route", "/api/conversations/42", http.StatusOK},
		{"trailing slash", "/api/conversations/42/", http.StatusOK},
		{"native route", "/healthz", http.StatusNoContent},
		{"unknown", "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if innerPath != "/conversations/42" {
		t.Errorf("inner path = %q, want prefix stripped", innerPath)
	}
	if len(order) != 2 {
		t.Errorf("middleware calls = %d, want 2", len(order))
	}
}
