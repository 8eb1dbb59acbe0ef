// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package crud generates the standard five REST handlers (list, get, create,
update, delete) for any resource from a single declarative configuration.

# Architecture

Resource packages stay thin: they declare a [Config] — storage accessor,
query schema, patch allowlist, lifecycle hooks — and mount the generated
handlers on their router. All envelope shaping, query compilation, error
funneling, and pagination semantics live here once, so every resource
behaves identically on the wire.

Hooks are the escape hatch for per-resource behavior (slug derivation,
aggregate recomputation) without giving up the shared pipeline.
*/
package crud

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/ctxutil"
	"github.com/taibuivan/trekora/internal/platform/listing"
	requestutil "github.com/taibuivan/trekora/internal/platform/request"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/pkg/pagination"
	"github.com/taibuivan/trekora/pkg/slice"
)

// Accessor is the storage contract a resource must satisfy to be served by
// the generated handlers.
//
// FindMany must report the total matching count even when the requested
// page is empty, so the handler can distinguish "past the last page" from
// "empty collection".
type Accessor[T any] interface {
	FindMany(ctx context.Context, spec listing.Spec) ([]*T, int, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, entity *T) error
	UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// Hook runs resource-specific logic at a lifecycle point. A BeforeCreate
// hook error aborts the write; an AfterWrite error is logged and swallowed.
type Hook[T any] func(ctx context.Context, entity *T) error

// Config declares everything the factory needs to serve one resource.
type Config[T any] struct {
	// Resource is the singular resource name used in error messages ("tour").
	Resource string

	Accessor Accessor[T]

	// Schema is the listing allowlist for filters, sorts, and projection.
	Schema listing.Schema

	// PatchFields is the allowlist of JSON body fields accepted on update.
	// Anything else in the payload is silently discarded, which keeps
	// privileged columns (role, active, ratings) out of reach of PATCH.
	PatchFields []string

	// DecodeCreate overrides the default JSON body decode for creation,
	// for resources that derive fields from the authenticated user or URL.
	DecodeCreate func(r *http.Request) (*T, error)

	// ValidatePatch inspects the filtered patch before it reaches storage.
	ValidatePatch func(patch map[string]any) error

	// Scope injects mandatory filters from the request, e.g. the parent
	// tour id on nested review routes. Scope filters bypass the client
	// allowlist check because the server itself is the author.
	Scope func(r *http.Request) []listing.Filter

	// BeforeCreate hooks run in order before the insert; first error aborts.
	BeforeCreate []Hook[T]

	// AfterWrite runs after a successful create, update, or delete commit.
	// It is best-effort: a failure is logged, never surfaced, and never
	// rolls back the primary write. Used for derived aggregates.
	AfterWrite Hook[T]
}

// Handler serves the standard REST operations for one resource.
type Handler[T any] struct {
	cfg Config[T]
}

func NewHandler[T any](cfg Config[T]) *Handler[T] {
	return &Handler[T]{cfg: cfg}
}

// GetAll lists the resource with full query-feature support.
//
// An explicitly requested page past the end of the collection is a 404,
// not an empty success page.
func (h *Handler[T]) GetAll(writer http.ResponseWriter, request *http.Request) {
	spec := listing.Parse(request.URL.Query(), h.cfg.Schema)
	if h.cfg.Scope != nil {
		spec.Filters = append(spec.Filters, h.cfg.Scope(request)...)
	}

	items, total, err := h.cfg.Accessor.FindMany(request.Context(), spec)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !spec.PageExists(total) {
		respond.Error(writer, request, apperr.PageOutOfRange())
		return
	}

	data := slice.Map(items, func(item *T) any { return spec.Project(item) })
	if data == nil {
		// Empty pages serialize as [], not null.
		data = []any{}
	}

	respond.List(writer, data, len(items), pagination.NewMeta(spec.Page.Page, spec.Page.Limit, total))
}

// GetOne fetches a single resource by its {id} URL parameter. The fields
// projection applies here too.
func (h *Handler[T]) GetOne(writer http.ResponseWriter, request *http.Request) {
	spec := listing.Parse(request.URL.Query(), h.cfg.Schema)

	entity, err := h.cfg.Accessor.FindByID(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, spec.Project(entity))
}

// CreateOne decodes, runs the BeforeCreate chain, and inserts.
func (h *Handler[T]) CreateOne(writer http.ResponseWriter, request *http.Request) {
	entity, err := h.decodeCreate(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	for _, hook := range h.cfg.BeforeCreate {
		if err := hook(request.Context(), entity); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	if err := h.cfg.Accessor.Create(request.Context(), entity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	h.afterWrite(request.Context(), entity)
	respond.Created(writer, entity)
}

// UpdateOne applies a partial update restricted to the patch allowlist.
func (h *Handler[T]) UpdateOne(writer http.ResponseWriter, request *http.Request) {
	var body map[string]any
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch := filterPatch(body, h.cfg.PatchFields)
	if len(patch) == 0 {
		respond.Error(writer, request, apperr.ValidationError("No updatable fields provided"))
		return
	}

	if h.cfg.ValidatePatch != nil {
		if err := h.cfg.ValidatePatch(patch); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	entity, err := h.cfg.Accessor.UpdateByID(request.Context(), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	h.afterWrite(request.Context(), entity)
	respond.OK(writer, entity)
}

// DeleteOne removes the resource and answers 204 with no envelope.
//
// When an AfterWrite hook is configured the row is fetched first, so the
// hook still sees the doomed entity (aggregate recomputation needs its
// foreign keys after the row is gone).
func (h *Handler[T]) DeleteOne(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var entity *T
	if h.cfg.AfterWrite != nil {
		found, err := h.cfg.Accessor.FindByID(request.Context(), id)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		entity = found
	}

	if err := h.cfg.Accessor.DeleteByID(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	h.afterWrite(request.Context(), entity)
	respond.NoContent(writer)
}

func (h *Handler[T]) decodeCreate(request *http.Request) (*T, error) {
	if h.cfg.DecodeCreate != nil {
		return h.cfg.DecodeCreate(request)
	}

	entity := new(T)
	if err := requestutil.DecodeJSON(request, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// afterWrite runs the hook outside the write path: the commit already
// happened, so a hook failure is an observability event, not a client error.
func (h *Handler[T]) afterWrite(ctx context.Context, entity *T) {
	if h.cfg.AfterWrite == nil || entity == nil {
		return
	}
	if err := h.cfg.AfterWrite(ctx, entity); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "after_write_hook_failed",
			slog.String("resource", h.cfg.Resource),
			slog.String("error", err.Error()),
		)
	}
}

// filterPatch keeps only allowlisted fields from a raw JSON body.
func filterPatch(body map[string]any, allowed []string) map[string]any {
	patch := make(map[string]any, len(allowed))
	for _, field := range allowed {
		if value, ok := body[field]; ok {
			patch[field] = value
		}
	}
	return patch
}
