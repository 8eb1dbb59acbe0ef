// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Translation Table
//
//	pgx.ErrNoRows                  → NOT_FOUND (404)
//	SQLSTATE 23505 (unique)        → DUPLICATE_VALUE (400)
//	SQLSTATE 22P02 (bad uuid/cast) → INVALID_IDENTIFIER (400)
//	anything else                  → INTERNAL_ERROR (500), cause retained
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/trekora/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the
// error type. The resource name feeds the NOT_FOUND message.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return apperr.DuplicateValue("Duplicate value: a record with these details already exists")
		case pgerrcode.InvalidTextRepresentation:
			// Typically a malformed UUID handed to a uuid column.
			return apperr.InvalidIdentifier(pgError.Message)
		}
	}

	return apperr.Internal(err)
}
