package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "50")

	cfg := pagination.Config{}
	if err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 100 {
		t.Errorf("config = %+v, want 50/100", cfg)
	}

	bad := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	err := bad.Finalize(nil)
	if err == nil || !strings.Contains(err.Error(), "cannot exceed") {
		t.Errorf("Finalize() err = %v", err)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		search   string
		sort     int
	}{
		{"defaults", "", 1, 20, "", 0},
		{"explicit", "page=3&page_size=10&search=invoice&sort=-ClassifiedAt,Category", 3, 10, "invoice", 2},
		{"page size capped", "page_size=500", 1, 100, "", 0},
		{"garbage ignored", "page=x&page_size=-4", 1, 20, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, defaultConfig())

			if req.Page != tt.page || req.PageSize != tt.pageSize {
				t.Errorf("page = %d/%d, want %d/%d", req.Page, req.PageSize, tt.page, tt.pageSize)
			}
			if (req.Search == nil) != (tt.search == "") || (req.Search != nil && *req.Search != tt.search) {
				t.Errorf("search = %v, want %q", req.Search, tt.search)
			}
			if len(req.Sort) != tt.sort {
				t.Errorf("sort = %+v, want %d fields", req.Sort, tt.sort)
			}
		})
	}
}

func TestPageRequestSortJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []query.SortField
	}{
		{"string form", `{"sort":"-Version"}`, []query.SortField{{Field: "Version", Descending: true}}},
		{"array form", `{"sort":[{"Field":"CreatedAt","Descending":false}]}`, []query.SortField{{Field: "CreatedAt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req pagination.PageRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(req.Sort) != 1 || req.Sort[0] != tt.want[0] {
				t.Errorf("sort = %+v, want %+v", req.Sort, tt.want)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		pageSize   int
		totalPages int
	}{
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"empty", 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult[string](nil, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.totalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.totalPages)
			}
			if result.Data == nil {
				t.Error("Data should be an empty slice, not nil")
			}
		})
	}
}
