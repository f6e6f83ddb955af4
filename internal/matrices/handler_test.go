package matrices_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/matrices"
	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/storage"
)

type mockSystem struct {
	matrices.System

	latestFn   func(ctx context.Context) (*rules.Matrix, error)
	findFn     func(ctx context.Context, version string) (*rules.Matrix, error)
	publishFn  func(ctx context.Context, cmd matrices.PublishCommand) (*rules.Matrix, error)
	activateFn func(ctx context.Context, version string) (*rules.Matrix, error)
	evaluateFn func(ctx context.Context, version string, cmd matrices.EvaluateCommand) (*matrices.EvaluateResult, error)
	snapshotFn func(ctx context.Context, version string) (*storage.BlobResult, error)
}

func (m *mockSystem) Latest(ctx context.Context) (*rules.Matrix, error) { return m.latestFn(ctx) }

func (m *mockSystem) Find(ctx context.Context, version string) (*rules.Matrix, error) {
	return m.findFn(ctx, version)
}

func (m *mockSystem) Publish(ctx context.Context, cmd matrices.PublishCommand) (*rules.Matrix, error) {
	return m.publishFn(ctx, cmd)
}

func (m *mockSystem) Activate(ctx context.Context, version string) (*rules.Matrix, error) {
	return m.activateFn(ctx, version)
}

func (m *mockSystem) Validate(_ context.Context, cmd matrices.PublishCommand) matrices.ValidationResult {
	return matrices.Check(cmd)
}

func (m *mockSystem) Evaluate(ctx context.Context, version string, cmd matrices.EvaluateCommand) (*matrices.EvaluateResult, error) {
	return m.evaluateFn(ctx, version, cmd)
}

func (m *mockSystem) Snapshot(ctx context.Context, version string) (*storage.BlobResult, error) {
	return m.snapshotFn(ctx, version)
}

func setupMux(sys matrices.System) *http.ServeMux {
	h := matrices.NewHandler(sys, discardLogger(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func serve(sys matrices.System, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHandlerLatest(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"published", nil, http.StatusOK},
		{"none published", matrices.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{latestFn: func(context.Context) (*rules.Matrix, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &rules.Matrix{Version: "3", Active: true}, nil
			}}

			if rec := serve(sys, http.MethodGet, "/matrices/latest", ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerFindPassesVersion(t *testing.T) {
	var got string
	sys := &mockSystem{findFn: func(_ context.Context, version string) (*rules.Matrix, error) {
		got = version
		return &rules.Matrix{Version: version}, nil
	}}

	rec := serve(sys, http.MethodGet, "/matrices/4", "")
	if rec.Code != http.StatusOK || got != "4" {
		t.Errorf("status = %d, version = %q", rec.Code, got)
	}
}

func TestHandlerPublish(t *testing.T) {
	body, _ := json.Marshal(invoiceCommand())

	t.Run("created", func(t *testing.T) {
		sys := &mockSystem{publishFn: func(_ context.Context, cmd matrices.PublishCommand) (*rules.Matrix, error) {
			m := cmd.Matrix()
			m.Version = "1"
			m.Active = true
			return m, nil
		}}

		rec := serve(sys, http.MethodPost, "/matrices", string(body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
	})

	t.Run("invalid lists issues", func(t *testing.T) {
		sys := &mockSystem{publishFn: func(_ context.Context, cmd matrices.PublishCommand) (*rules.Matrix, error) {
			return nil, rules.Validate(&rules.Matrix{})
		}}

		rec := serve(sys, http.MethodPost, "/matrices", string(body))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}

		var result matrices.ValidationResult
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Valid || len(result.Issues) == 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := serve(&mockSystem{}, http.MethodPost, "/matrices", `{"attributes":[],"owner":"x"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerValidate(t *testing.T) {
	body, _ := json.Marshal(invoiceCommand())

	rec := serve(&mockSystem{}, http.MethodPost, "/matrices/validate", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result matrices.ValidationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Valid {
		t.Errorf("result = %+v, want valid", result)
	}
}

func TestHandlerActivate(t *testing.T) {
	sys := &mockSystem{activateFn: func(_ context.Context, version string) (*rules.Matrix, error) {
		if version == "x" {
			return nil, fmt.Errorf("%w: %q", matrices.ErrInvalidVersion, version)
		}
		return &rules.Matrix{Version: version, Active: true}, nil
	}}

	if rec := serve(sys, http.MethodPost, "/matrices/2/activate", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec := serve(sys, http.MethodPost, "/matrices/x/activate", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerEvaluate(t *testing.T) {
	var captured matrices.EvaluateCommand
	sys := &mockSystem{evaluateFn: func(_ context.Context, _ string, cmd matrices.EvaluateCommand) (*matrices.EvaluateResult, error) {
		captured = cmd
		return &matrices.EvaluateResult{Rejected: []string{}}, nil
	}}

	body := `{"baseline":{"category":"Digitise","confidence":0.7,"rationale":"paper"},"attributes":{"volume":"high"}}`
	rec := serve(sys, http.MethodPost, "/matrices/1/evaluate", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Baseline.Category != taxonomy.Digitise || captured.Attributes["volume"] != "high" {
		t.Errorf("command = %+v", captured)
	}
}

func TestHandlerSnapshot(t *testing.T) {
	sys := &mockSystem{snapshotFn: func(_ context.Context, version string) (*storage.BlobResult, error) {
		if version == "9" {
			return nil, storage.ErrNotFound
		}
		return &storage.BlobResult{
			Body:          io.NopCloser(strings.NewReader(`{"version":"1"}`)),
			ContentType:   "application/json",
			ContentLength: 15,
		}, nil
	}}

	rec := serve(sys, http.MethodGet, "/matrices/1/snapshot", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"version":"1"}` {
		t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
	}

	if rec := serve(sys, http.MethodGet, "/matrices/9/snapshot", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
