// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package listing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Compiled is a [Spec] rendered to SQL fragments a store can splice into
// its base query. Every client-supplied value is a positional argument;
// identifiers come exclusively from the schema.
type Compiled struct {
	// Where holds zero or more " AND <column> <op> $n" terms, ready to be
	// appended after the store's own base predicate.
	Where string

	// Args are the filter values, ordered to match the placeholders.
	Args []any

	// OrderBy is the full "ORDER BY ..." clause including the tiebreak.
	OrderBy string

	Limit  int
	Offset int
}

// Compile renders the spec against the schema. firstArg is the placeholder
// number the first filter argument should use, so stores with their own
// leading arguments keep a contiguous numbering.
func (s Spec) Compile(schema Schema, firstArg int) Compiled {
	var where strings.Builder
	args := make([]any, 0, len(s.Filters))

	for _, f := range s.Filters {
		column, declared := schema.Columns[f.Field]
		if !declared {
			continue
		}
		fmt.Fprintf(&where, " AND %s %s $%d", column.Name, f.Op, firstArg+len(args))
		args = append(args, f.Value)
	}

	return Compiled{
		Where:   where.String(),
		Args:    args,
		OrderBy: s.orderBy(schema),
		Limit:   s.Page.Limit,
		Offset:  s.Page.Offset(),
	}
}

func (s Spec) orderBy(schema Schema) string {
	var terms []string
	for _, sort := range s.Sorts {
		column, declared := schema.Columns[sort.Field]
		if !declared {
			continue
		}
		direction := "ASC"
		if sort.Desc {
			direction = "DESC"
		}
		terms = append(terms, column.Name+" "+direction)
	}

	if schema.TiebreakColumn != "" {
		terms = append(terms, schema.TiebreakColumn+" DESC")
	}
	if len(terms) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

// # Projection

// Project prunes an already-serialized entity down to the spec's field
// allowlist. A nil allowlist passes the entity through untouched.
//
// Projection happens at the response boundary, after the row is scanned in
// full: secret columns stay out of responses via struct tags, and the query
// text never varies by projection, which keeps prepared statements cacheable.
// The id field always survives so clients can follow up on any row.
func (s Spec) Project(entity any) any {
	if len(s.Fields) == 0 {
		return entity
	}

	raw, err := json.Marshal(entity)
	if err != nil {
		return entity
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return entity
	}

	keep := map[string]bool{"id": true}
	for _, field := range s.Fields {
		keep[field] = true
	}
	for key := range flat {
		if !keep[key] {
			delete(flat, key)
		}
	}
	return flat
}

// ProjectAll applies [Spec.Project] to each element of a result page.
func (s Spec) ProjectAll(entities []any) []any {
	if len(s.Fields) == 0 {
		return entities
	}
	projected := make([]any, len(entities))
	for i, entity := range entities {
		projected[i] = s.Project(entity)
	}
	return projected
}
