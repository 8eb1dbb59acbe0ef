// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package booking

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/crud"
	"github.com/taibuivan/trekora/internal/platform/listing"
	"github.com/taibuivan/trekora/internal/platform/middleware"
	requestutil "github.com/taibuivan/trekora/internal/platform/request"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// SignatureHeader carries the webhook payload signature.
const SignatureHeader = "X-Payment-Signature"

const maxWebhookBody = 1 << 20

type Handler struct {
	service *Service
	crud    *crud.Handler[Booking]
	protect func(http.Handler) http.Handler
}

func NewHandler(service *Service, store Repository, protect func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service: service,
		crud: crud.NewHandler(crud.Config[Booking]{
			Resource:     "booking",
			Accessor:     store,
			Schema:       Schema(),
			PatchFields:  PatchFields,
			Scope:        ownBookingsScope,
			BeforeCreate: []crud.Hook[Booking]{PrepareManual},
		}),
		protect: protect,
	}
}

func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(protected chi.Router) {
		protected.Use(handler.protect)

		// Every signed-in user: open a checkout, list what the scope allows.
		protected.Get("/checkout-session/{tourId}", handler.checkoutSession)
		protected.Get("/", handler.crud.GetAll)

		// Staff
		protected.Group(func(staff chi.Router) {
			staff.Use(middleware.RequireRole(sec.RoleAdmin, sec.RoleLeadGuide))

			staff.Get("/{id}", handler.crud.GetOne)
			staff.Post("/", handler.crud.CreateOne)
			staff.Patch("/{id}", handler.crud.UpdateOne)
			staff.Delete("/{id}", handler.crud.DeleteOne)
		})
	})

	return router
}

// Webhook is the provider callback. Mounted outside the auth chain: its
// authentication is the payload signature, not a user token.
func (handler *Handler) Webhook(writer http.ResponseWriter, request *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(request.Body, maxWebhookBody))
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Unreadable webhook payload"))
		return
	}

	if err := handler.service.HandleWebhook(request.Context(), payload, request.Header.Get(SignatureHeader)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"received": "true"})
}

func (handler *Handler) checkoutSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.CreateCheckoutSession(request.Context(), requestutil.Param(request, "tourId"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"session": session})
}

// ownBookingsScope pins regular users to their own bookings; staff see the
// whole table.
func ownBookingsScope(request *http.Request) []listing.Filter {
	principal := requestutil.Principal(request)
	if principal == nil || principal.Role.In(sec.RoleAdmin, sec.RoleLeadGuide) {
		return nil
	}
	return []listing.Filter{{
		Field: "user_id",
		Op:    listing.OpEqual,
		Value: principal.UserID,
	}}
}
