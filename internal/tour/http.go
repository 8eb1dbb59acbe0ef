// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tour

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/trekora/internal/platform/crud"
	"github.com/taibuivan/trekora/internal/platform/middleware"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// Repository is the storage surface the handler needs: the standard CRUD
// accessor plus the catalogue aggregates.
type Repository interface {
	crud.Accessor[Tour]
	Stats(ctx context.Context) ([]*DifficultyStats, error)
}

type Handler struct {
	store   Repository
	crud    *crud.Handler[Tour]
	protect func(http.Handler) http.Handler

	// mountReviews mounts the nested review routes under /{tourId}/reviews.
	// Injected by the composition root so tour never imports review.
	mountReviews func(chi.Router)
}

func NewHandler(store Repository, protect func(http.Handler) http.Handler, mountReviews func(chi.Router)) *Handler {
	return &Handler{
		store: store,
		crud: crud.NewHandler(crud.Config[Tour]{
			Resource:      "tour",
			Accessor:      store,
			Schema:        Schema(),
			PatchFields:   PatchFields,
			ValidatePatch: ValidatePatch,
			BeforeCreate:  []crud.Hook[Tour]{PrepareCreate},
		}),
		protect:      protect,
		mountReviews: mountReviews,
	}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public catalogue
	router.Get("/", handler.crud.GetAll)
	router.Get("/top-5-cheap", handler.topCheap)
	router.Get("/stats", handler.stats)
	router.Get("/{id}", handler.crud.GetOne)

	// Catalogue management
	router.Group(func(managed chi.Router) {
		managed.Use(handler.protect)
		managed.Use(middleware.RequireRole(sec.RoleAdmin, sec.RoleLeadGuide))

		managed.Post("/", handler.crud.CreateOne)
		managed.Patch("/{id}", handler.crud.UpdateOne)
		managed.Delete("/{id}", handler.crud.DeleteOne)
	})

	if handler.mountReviews != nil {
		router.Route("/{tourId}/reviews", handler.mountReviews)
	}

	return router
}

// topCheap is a canned listing: the five best-rated tours, cheapest first,
// trimmed to the card fields the landing page renders. Client parameters
// that clash with the preset are overridden, the rest pass through.
func (handler *Handler) topCheap(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	query.Set("limit", "5")
	query.Del("page")
	query.Set("sort", "-ratings_average,price")
	query.Set("fields", "name,price,ratings_average,summary,difficulty")
	request.URL.RawQuery = query.Encode()

	handler.crud.GetAll(writer, request)
}

func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.store.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"stats": stats})
}
