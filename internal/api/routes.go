package api

import (
	"net/http"

	"github.com/JaimeStill/pathfinder/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	archive := newArchiveHandler(runtime.Storage, runtime.Logger, runtime.MaxListSize)

	routes.Register(
		mux,
		domain.Conversations.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Matrices.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Audit.Handler().Routes(),
		archive.routes(),
	)
}
