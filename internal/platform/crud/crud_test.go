// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package crud_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/crud"
	"github.com/taibuivan/trekora/internal/platform/listing"
)

type widget struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// memoryAccessor is a map-backed Accessor for exercising the handlers
// without a database.
type memoryAccessor struct {
	items   []*widget
	deleted []string
}

func (m *memoryAccessor) FindMany(_ context.Context, spec listing.Spec) ([]*widget, int, error) {
	total := len(m.items)

	start := spec.Page.Offset()
	if start > total {
		start = total
	}
	end := start + spec.Page.Limit
	if end > total {
		end = total
	}
	return m.items[start:end], total, nil
}

func (m *memoryAccessor) FindByID(_ context.Context, id string) (*widget, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, apperr.NotFound("widget")
}

func (m *memoryAccessor) Create(_ context.Context, entity *widget) error {
	entity.ID = fmt.Sprintf("w%d", len(m.items)+1)
	m.items = append(m.items, entity)
	return nil
}

func (m *memoryAccessor) UpdateByID(ctx context.Context, id string, patch map[string]any) (*widget, error) {
	entity, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name, ok := patch["name"].(string); ok {
		entity.Name = name
	}
	if price, ok := patch["price"].(float64); ok {
		entity.Price = price
	}
	return entity, nil
}

func (m *memoryAccessor) DeleteByID(ctx context.Context, id string) error {
	if _, err := m.FindByID(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func seedAccessor(n int) *memoryAccessor {
	accessor := &memoryAccessor{}
	for i := 1; i <= n; i++ {
		accessor.items = append(accessor.items, &widget{
			ID:    fmt.Sprintf("w%d", i),
			Name:  fmt.Sprintf("Widget %d", i),
			Price: float64(i * 10),
		})
	}
	return accessor
}

func widgetSchema() listing.Schema {
	return listing.Schema{
		Columns: map[string]listing.Column{
			"name":  {Name: "name", Kind: listing.Text, Filterable: true},
			"price": {Name: "price", Kind: listing.Float, Filterable: true},
		},
		DefaultSort: listing.Sort{Field: "name"},
	}
}

func mountHandler(cfg crud.Config[widget]) chi.Router {
	handler := crud.NewHandler(cfg)

	router := chi.NewRouter()
	router.Get("/", handler.GetAll)
	router.Post("/", handler.CreateOne)
	router.Get("/{id}", handler.GetOne)
	router.Patch("/{id}", handler.UpdateOne)
	router.Delete("/{id}", handler.DeleteOne)
	return router
}

func doRequest(t *testing.T, router chi.Router, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	payload := map[string]any{}
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	}
	return recorder, payload
}

/*
TestHandler_GetAll checks the list envelope and pagination behavior,
including the page-out-of-range boundary.
*/
func TestHandler_GetAll(t *testing.T) {
	router := mountHandler(crud.Config[widget]{
		Resource: "widget",
		Accessor: seedAccessor(10),
		Schema:   widgetSchema(),
	})

	t.Run("first_page", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/?page=1&limit=3", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "success", payload["status"])
		assert.Equal(t, float64(3), payload["results"])
	})

	t.Run("last_partial_page", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/?page=4&limit=3", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, float64(1), payload["results"])
	})

	t.Run("page_out_of_range", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/?page=5&limit=3", "")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "fail", payload["status"])
		assert.Equal(t, "PAGE_OUT_OF_RANGE", payload["code"])
	})

	t.Run("implicit_page_never_out_of_range", func(t *testing.T) {
		empty := mountHandler(crud.Config[widget]{
			Resource: "widget",
			Accessor: &memoryAccessor{},
			Schema:   widgetSchema(),
		})
		recorder, payload := doRequest(t, empty, http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, float64(0), payload["results"])
	})
}

/*
TestHandler_GetOne checks single-resource fetch, projection, and not-found.
*/
func TestHandler_GetOne(t *testing.T) {
	router := mountHandler(crud.Config[widget]{
		Resource: "widget",
		Accessor: seedAccessor(3),
		Schema:   widgetSchema(),
	})

	t.Run("found", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/w2", "")

		require.Equal(t, http.StatusOK, recorder.Code)
		data := payload["data"].(map[string]any)
		assert.Equal(t, "Widget 2", data["name"])
	})

	t.Run("projection_applies", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/w2?fields=name", "")

		require.Equal(t, http.StatusOK, recorder.Code)
		data := payload["data"].(map[string]any)
		assert.Contains(t, data, "id")
		assert.Contains(t, data, "name")
		assert.NotContains(t, data, "price")
	})

	t.Run("missing", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodGet, "/nope", "")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "NOT_FOUND", payload["code"])
	})
}

/*
TestHandler_CreateOne checks creation, the 201 envelope, and that
BeforeCreate hooks can both mutate and veto.
*/
func TestHandler_CreateOne(t *testing.T) {
	t.Run("created_with_hook_mutation", func(t *testing.T) {
		accessor := seedAccessor(0)
		router := mountHandler(crud.Config[widget]{
			Resource: "widget",
			Accessor: accessor,
			Schema:   widgetSchema(),
			BeforeCreate: []crud.Hook[widget]{
				func(_ context.Context, entity *widget) error {
					entity.Name = strings.ToUpper(entity.Name)
					return nil
				},
			},
		})

		recorder, payload := doRequest(t, router, http.MethodPost, "/", `{"name":"gizmo","price":5}`)

		require.Equal(t, http.StatusCreated, recorder.Code)
		data := payload["data"].(map[string]any)
		assert.Equal(t, "GIZMO", data["name"])
		assert.Len(t, accessor.items, 1)
	})

	t.Run("hook_error_aborts", func(t *testing.T) {
		accessor := seedAccessor(0)
		router := mountHandler(crud.Config[widget]{
			Resource: "widget",
			Accessor: accessor,
			Schema:   widgetSchema(),
			BeforeCreate: []crud.Hook[widget]{
				func(context.Context, *widget) error {
					return apperr.ValidationError("A widget must have a name")
				},
			},
		})

		recorder, _ := doRequest(t, router, http.MethodPost, "/", `{"price":5}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Empty(t, accessor.items)
	})

	t.Run("malformed_body", func(t *testing.T) {
		router := mountHandler(crud.Config[widget]{
			Resource: "widget",
			Accessor: seedAccessor(0),
			Schema:   widgetSchema(),
		})

		recorder, _ := doRequest(t, router, http.MethodPost, "/", `{not json`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

/*
TestHandler_UpdateOne checks the patch allowlist: undeclared fields are
discarded, and a patch with nothing updatable is rejected.
*/
func TestHandler_UpdateOne(t *testing.T) {
	accessor := seedAccessor(2)
	router := mountHandler(crud.Config[widget]{
		Resource:    "widget",
		Accessor:    accessor,
		Schema:      widgetSchema(),
		PatchFields: []string{"name", "price"},
	})

	t.Run("allowlisted_fields_applied", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodPatch, "/w1",
			`{"name":"Renamed","id":"hacked","role":"admin"}`)

		require.Equal(t, http.StatusOK, recorder.Code)
		data := payload["data"].(map[string]any)
		assert.Equal(t, "Renamed", data["name"])
		assert.Equal(t, "w1", data["id"])
	})

	t.Run("nothing_updatable", func(t *testing.T) {
		recorder, payload := doRequest(t, router, http.MethodPatch, "/w1", `{"role":"admin"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", payload["code"])
	})

	t.Run("missing_resource", func(t *testing.T) {
		recorder, _ := doRequest(t, router, http.MethodPatch, "/ghost", `{"name":"x"}`)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

/*
TestHandler_DeleteOne checks the 204 on success and that the AfterWrite
hook observes the deleted entity.
*/
func TestHandler_DeleteOne(t *testing.T) {
	accessor := seedAccessor(2)

	var observed *widget
	router := mountHandler(crud.Config[widget]{
		Resource: "widget",
		Accessor: accessor,
		Schema:   widgetSchema(),
		AfterWrite: func(_ context.Context, entity *widget) error {
			observed = entity
			return nil
		},
	})

	t.Run("deleted", func(t *testing.T) {
		recorder, _ := doRequest(t, router, http.MethodDelete, "/w2", "")

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, []string{"w2"}, accessor.deleted)
		require.NotNil(t, observed)
		assert.Equal(t, "w2", observed.ID)
	})

	t.Run("missing", func(t *testing.T) {
		recorder, _ := doRequest(t, router, http.MethodDelete, "/ghost", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
