// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/trekora/internal/platform/crud"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/internal/platform/middleware"
	requestutil "github.com/taibuivan/trekora/internal/platform/request"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// Repository is the storage surface the handler needs: the CRUD accessor
// plus the aggregate recomputation.
type Repository interface {
	crud.Accessor[Review]
	RecomputeTourRatings(ctx context.Context, tourID string) error
}

type Handler struct {
	crud    *crud.Handler[Review]
	protect func(http.Handler) http.Handler
}

func NewHandler(store Repository, protect func(http.Handler) http.Handler) *Handler {
	return &Handler{
		crud: crud.NewHandler(crud.Config[Review]{
			Resource:      "review",
			Accessor:      store,
			Schema:        Schema(),
			PatchFields:   PatchFields,
			ValidatePatch: ValidatePatch,
			DecodeCreate:  decodeCreate,
			Scope:         tourScope,
			BeforeCreate:  []crud.Hook[Review]{PrepareCreate},
			AfterWrite: func(ctx context.Context, review *Review) error {
				return store.RecomputeTourRatings(ctx, review.TourID)
			},
		}),
		protect: protect,
	}
}

// NestedRoutes registers the review routes under /tours/{tourId}/reviews.
func (handler *Handler) NestedRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.crud.GetAll)
	router.Get("/{id}", handler.crud.GetOne)

	router.Group(func(protected chi.Router) {
		protected.Use(handler.protect)

		// Only regular users write reviews; staff opinions do not move the
		// public rating.
		protected.With(middleware.RequireRole(sec.RoleUser)).
			Post("/", handler.crud.CreateOne)

		protected.With(middleware.RequireRole(sec.RoleUser, sec.RoleAdmin)).
			Patch("/{id}", handler.crud.UpdateOne)
		protected.With(middleware.RequireRole(sec.RoleUser, sec.RoleAdmin)).
			Delete("/{id}", handler.crud.DeleteOne)
	})
}

// tourScope pins every nested listing to the parent tour from the URL.
func tourScope(request *http.Request) []listing.Filter {
	return []listing.Filter{{
		Field: "tour_id",
		Op:    listing.OpEqual,
		Value: requestutil.Param(request, "tourId"),
	}}
}

// decodeCreate builds the review from the body plus the request context:
// the author is always the authenticated user and the tour always the one
// from the URL, regardless of what the payload claims.
func decodeCreate(request *http.Request) (*Review, error) {
	var input struct {
		Review string `json:"review"`
		Rating int    `json:"rating"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return nil, err
	}

	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return nil, err
	}

	return &Review{
		Review: input.Review,
		Rating: input.Rating,
		TourID: requestutil.Param(request, "tourId"),
		UserID: userID,
	}, nil
}
