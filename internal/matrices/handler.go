package matrices

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/pkg/handlers"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/routes"
	"github.com/JaimeStill/pathfinder/pkg/storage"
)

// Handler provides HTTP endpoints for decision matrices.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "matrices"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for matrix endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/matrices",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/latest", Handler: h.Latest},
			{Method: "GET", Pattern: "/{version}", Handler: h.Find},
			{Method: "GET", Pattern: "/{version}/snapshot", Handler: h.Snapshot},
			{Method: "POST", Pattern: "", Handler: h.Publish},
			{Method: "POST", Pattern: "/validate", Handler: h.Validate},
			{Method: "POST", Pattern: "/{version}/activate", Handler: h.Activate},
			{Method: "POST", Pattern: "/{version}/evaluate", Handler: h.Evaluate},
		},
	}
}

// List returns a paginated list of matrix versions, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Latest returns the active matrix.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Latest(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

// Find returns one matrix version.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Find(r.Context(), r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

// Snapshot streams the archived JSON snapshot of a version.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := h.sys.Snapshot(r.Context(), r.PathValue("version"))
	if err != nil {
		status := MapHTTPStatus(err)
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, blob.Body)
}

// Publish validates and publishes a new matrix version. Returns 201 with the
// published matrix, or 422 with every validation issue.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[PublishCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	m, err := h.sys.Publish(r.Context(), cmd)
	if errors.Is(err, rules.ErrInvalidMatrix) {
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, ValidationResult{Issues: rules.Issues(err)})
		return
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, m)
}

// Validate checks a matrix definition without publishing it.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[PublishCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.sys.Validate(r.Context(), cmd))
}

// Activate makes an earlier version the active matrix.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Activate(r.Context(), r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

// Evaluate dry-runs a version against a supplied baseline and attribute values.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	cmd, err := handlers.DecodeJSON[EvaluateCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Evaluate(r.Context(), r.PathValue("version"), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
