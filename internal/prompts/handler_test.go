package prompts_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/prompts"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
)

type mockSystem struct {
	prompts.System

	listFn         func(ctx context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error)
	instructionsFn func(ctx context.Context, stage prompts.Stage) (string, error)
	createFn       func(ctx context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error)
	activateFn     func(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	return m.instructionsFn(ctx, stage)
}

func (m *mockSystem) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

func (m *mockSystem) Create(ctx context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Activate(ctx context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	return m.activateFn(ctx, id)
}

func setupMux(sys prompts.System) *http.ServeMux {
	h := prompts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)

	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func samplePrompt() prompts.Prompt {
	return prompts.Prompt{
		ID:           uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Name:         "terse-clarify",
		Stage:        prompts.StageClarify,
		Instructions: "Ask at most two short questions.",
		Description:  ptr("Shorter clarification rounds"),
	}
}

func TestHandlerList(t *testing.T) {
	var captured prompts.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
			captured = f
			result := pagination.NewPageResult([]prompts.Prompt{samplePrompt()}, 1, 1, 20)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/prompts?stage=clarify", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Stage == nil || *captured.Stage != prompts.StageClarify {
		t.Errorf("stage filter = %v, want clarify", captured.Stage)
	}

	var result pagination.PageResult[prompts.Prompt]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].Name != "terse-clarify" {
		t.Errorf("result = %+v", result)
	}
}

func TestHandlerStages(t *testing.T) {
	rec := httptest.NewRecorder()
	setupMux(&mockSystem{}).ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/stages", nil))

	var stages []prompts.Stage
	if err := json.NewDecoder(rec.Body).Decode(&stages); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stages) != 4 {
		t.Errorf("stages = %v, want 4", stages)
	}
}

func TestHandlerFind(t *testing.T) {
	p := samplePrompt()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
			if id != p.ID {
				return nil, prompts.ErrNotFound
			}
			return &p, nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/prompts/" + p.ID.String(), http.StatusOK},
		{"missing", "/prompts/" + uuid.New().String(), http.StatusNotFound},
		{"bad id", "/prompts/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerInstructions(t *testing.T) {
	sys := &mockSystem{
		instructionsFn: func(_ context.Context, stage prompts.Stage) (string, error) {
			return prompts.Instructions(stage)
		},
	}
	mux := setupMux(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/extract/instructions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var content prompts.StageContent
	if err := json.NewDecoder(rec.Body).Decode(&content); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if content.Stage != prompts.StageExtract || content.Content == "" {
		t.Errorf("content = %+v", content)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/enhance/spec", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown stage status = %d, want 400", rec.Code)
	}
}

func TestHandlerCreate(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
			p := samplePrompt()
			p.Name = cmd.Name
			return &p, nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"name":"terse","stage":"clarify","instructions":"Be brief."}`, http.StatusCreated},
		{"invalid stage", `{"name":"x","stage":"finalize","instructions":"y"}`, http.StatusBadRequest},
		{"unknown field", `{"name":"x","stage":"clarify","instructions":"y","extra":1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/prompts", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerActivate(t *testing.T) {
	sys := &mockSystem{
		activateFn: func(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
			p := samplePrompt()
			p.Active = true
			return &p, nil
		},
	}

	rec := httptest.NewRecorder()
	path := "/prompts/" + samplePrompt().ID.String() + "/activate"
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("POST", path, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var p prompts.Prompt
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.Active {
		t.Error("prompt not active")
	}
}
