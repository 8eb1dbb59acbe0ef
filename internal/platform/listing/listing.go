// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package listing compiles untrusted request query strings into safe,
composable list-query specifications: filter, sort, projection, and
pagination.

# Security Model

Nothing from the client ever reaches SQL as an identifier. Every field name
is resolved through a caller-declared [Schema] allowlist that maps public
field names to column references, and every value travels as a positional
argument. Comparison operators are restricted to a fixed closed set
(gt, gte, lt, lte) — an unknown operator suffix is dropped, never
translated. Widening that set is the one change in this package that needs
a security review.

# Request Grammar

	?price[gte]=500&difficulty=easy     filters (bare key = equality)
	?sort=-ratingsAverage,price         comma-separated, '-' = descending
	?fields=name,price,duration         projection allowlist
	?page=2&limit=10                    pagination (defaults 1 / 100)
*/
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/taibuivan/trekora/pkg/convert"
	"github.com/taibuivan/trekora/pkg/pagination"
	"github.com/taibuivan/trekora/pkg/query"
)

// reservedKeys never participate in filtering; they drive the other stages.
var reservedKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// comparisonOps is the closed set of operator suffixes that translate into
// SQL comparisons. Any other bracketed suffix is ignored entirely.
var comparisonOps = map[string]Op{
	"gt":  OpGreaterThan,
	"gte": OpGreaterOrEqual,
	"lt":  OpLessThan,
	"lte": OpLessOrEqual,
}

// Op is a comparison operator in a compiled filter.
type Op string

const (
	OpEqual          Op = "="
	OpGreaterThan    Op = ">"
	OpGreaterOrEqual Op = ">="
	OpLessThan       Op = "<"
	OpLessOrEqual    Op = "<="
)

// Kind declares a column's value type so filter values can be coerced
// before they are handed to the database driver.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
)

// Column describes one exposed field of a listable resource.
type Column struct {
	// Name is the SQL column reference (may be alias-qualified, e.g. "t.price").
	Name string

	// Kind is the value type used to coerce filter input.
	Kind Kind

	// Filterable marks the column as usable in client filters. Sorting and
	// projection are allowed on every declared column; filtering is the
	// narrower, explicitly declared privilege.
	Filterable bool
}

// Schema is the caller-declared allowlist a resource exposes to list queries.
//
// Anything not declared here is invisible to clients: unknown filter fields
// are ignored, unknown sort fields fall back to the default ordering, and
// unknown projection fields are dropped.
type Schema struct {
	// Columns maps public (JSON) field names to column descriptors.
	Columns map[string]Column

	// DefaultSort orders results when the client supplies no usable sort.
	// A deterministic default keeps pagination stable across calls.
	DefaultSort Sort

	// TiebreakColumn is appended (descending) as the final ordering term so
	// rows with equal sort keys still page deterministically.
	TiebreakColumn string
}

// Filter is one compiled filter term. Value is already coerced to the
// column's declared kind.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Sort is one compiled ordering term.
type Sort struct {
	Field string
	Desc  bool
}

// Spec is the full compiled query specification for a list call.
type Spec struct {
	Filters []Filter
	Sorts   []Sort

	// Fields is the projection allowlist (public names); nil means all.
	Fields []string

	// Page holds the clamped pagination parameters.
	Page pagination.Params

	// PageRequested records whether the client asked for an explicit page.
	// Only explicit page requests can fail with PAGE_OUT_OF_RANGE.
	PageRequested bool
}

// Parse compiles untrusted query values into a [Spec] against the schema.
//
// Parsing is total: malformed input degrades (bad numbers coerce to
// defaults, unknown fields and operators are dropped) rather than erroring,
// matching permissive client behavior. The one failure mode a list call can
// still hit, page-out-of-range, is decided later against the total count.
func Parse(values url.Values, schema Schema) Spec {
	spec := Spec{
		Filters: parseFilters(values, schema),
		Sorts:   parseSorts(values.Get("sort"), schema),
		Fields:  parseProjection(values.Get("fields"), schema),
		Page:    paginationParams(values),
	}
	spec.PageRequested = values.Get("page") != ""
	return spec
}

// PageExists reports whether the requested page overlaps the collection.
//
// The boundary is deliberate and literal: an explicitly requested page whose
// offset is at or past the total count does not exist, and list calls must
// surface that instead of silently returning an empty page.
func (s Spec) PageExists(totalCount int) bool {
	if !s.PageRequested {
		return true
	}
	return s.Page.Offset() < totalCount
}

// # Stage Parsers

// parseFilters strips reserved keys and compiles the remaining pairs.
//
// Keys are processed in sorted order so the compiled argument list is
// deterministic — handy for tests and for query-plan cache hit rates.
func parseFilters(values url.Values, schema Schema) []Filter {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var filters []Filter
	for _, key := range keys {
		field, op, ok := splitFilterKey(key)
		if !ok || reservedKeys[field] {
			continue
		}

		column, declared := schema.Columns[field]
		if !declared || !column.Filterable {
			continue
		}

		raw := values.Get(key)
		value, ok := coerceValue(raw, column.Kind)
		if !ok {
			continue
		}

		filters = append(filters, Filter{Field: field, Op: op, Value: value})
	}

	return filters
}

// splitFilterKey decomposes a query key into field and operator.
//
//	"price"      → ("price", OpEqual, true)
//	"price[gte]" → ("price", OpGreaterOrEqual, true)
//	"price[ne]"  → rejected: only the closed comparison set translates
func splitFilterKey(key string) (string, Op, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEqual, true
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", false
	}

	field := key[:open]
	opName := key[open+1 : len(key)-1]

	op, known := comparisonOps[opName]
	if !known {
		return "", "", false
	}
	return field, op, true
}

// coerceValue converts raw filter input to the column's declared kind.
func coerceValue(raw string, kind Kind) (any, bool) {
	switch kind {
	case Int:
		v, err := strconv.Atoi(raw)
		return v, err == nil
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		return v, err == nil
	default:
		return raw, true
	}
}

// parseSorts compiles the comma-separated sort expression. Field order is
// preserved as a stable tie-break; with no usable terms the schema default
// applies so pagination stays deterministic.
func parseSorts(raw string, schema Schema) []Sort {
	var sorts []Sort
	for _, term := range query.StringSlice(raw) {
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")

		if _, declared := schema.Columns[field]; !declared {
			continue
		}
		sorts = append(sorts, Sort{Field: field, Desc: desc})
	}

	if len(sorts) == 0 {
		sorts = append(sorts, schema.DefaultSort)
	}
	return sorts
}

// parseProjection compiles the comma-separated projection allowlist.
// nil means "all declared fields".
func parseProjection(raw string, schema Schema) []string {
	var fields []string
	for _, field := range query.StringSlice(raw) {
		if _, declared := schema.Columns[field]; !declared {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

// paginationParams clamps page/limit, coercing junk to defaults
// (convert.ToInt turns anything unparseable into 0, which the clamps catch).
func paginationParams(values url.Values) pagination.Params {
	page := convert.ToInt(values.Get("page"))
	limit := convert.ToInt(values.Get("limit"))

	if page < 1 {
		page = pagination.DefaultPage
	}
	if page > pagination.MaxPage {
		page = pagination.MaxPage
	}
	if limit < 1 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}

	return pagination.Params{Page: page, Limit: limit}
}
