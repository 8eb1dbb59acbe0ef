// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/trekora/internal/platform/database/schema"
	"github.com/taibuivan/trekora/internal/platform/dberr"
	"github.com/taibuivan/trekora/internal/platform/listing"
)

var patchColumns = map[string]string{
	"price": schema.Booking.Price,
	"paid":  schema.Booking.Paid,
}

// PostgresRepository implements the CRUD accessor backed by core.booking,
// joining core.tour for the tour name.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func selectColumns() string {
	b := schema.Booking
	return fmt.Sprintf(
		"b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, t.%s AS tourname, b.%s, b.%s",
		b.ID, b.TourID, b.UserID, b.Price, b.Paid, b.PaidAt,
		schema.Tour.Name, b.CreatedAt, b.UpdatedAt,
	)
}

func fromClause() string {
	return fmt.Sprintf("%s b JOIN %s t ON t.%s = b.%s",
		schema.Booking.Table, schema.Tour.Table,
		schema.Tour.ID, schema.Booking.TourID,
	)
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	booking := &Booking{}
	dest := []any{
		&booking.ID, &booking.TourID, &booking.UserID, &booking.Price,
		&booking.Paid, &booking.PaidAt, &booking.TourName,
		&booking.CreatedAt, &booking.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return booking, nil
}

func (repository *PostgresRepository) FindMany(ctx context.Context, spec listing.Spec) ([]*Booking, int, error) {
	compiled := spec.Compile(Schema(), 1)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s
		WHERE TRUE%s
		%s
		LIMIT %d OFFSET %d
	`,
		selectColumns(), fromClause(),
		compiled.Where, compiled.OrderBy, compiled.Limit, compiled.Offset,
	)

	rows, err := repository.db.Query(ctx, query, compiled.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "booking")
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		booking, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "booking")
		}
		bookings = append(bookings, booking)
	}

	if len(bookings) == 0 {
		total, err = repository.countMatching(ctx, spec)
		if err != nil {
			return nil, 0, err
		}
	}

	return bookings, total, nil
}

func (repository *PostgresRepository) countMatching(ctx context.Context, spec listing.Spec) (int, error) {
	compiled := spec.Compile(Schema(), 1)

	query := fmt.Sprintf(`SELECT count(*) FROM %s b WHERE TRUE%s`,
		schema.Booking.Table, compiled.Where,
	)

	var total int
	if err := repository.db.QueryRow(ctx, query, compiled.Args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "booking")
	}
	return total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE b.%s = $1`,
		selectColumns(), fromClause(), schema.Booking.ID,
	)

	booking, err := scanBooking(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "booking")
	}
	return booking, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, booking *Booking) error {
	b := schema.Booking
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s
	`,
		b.Table, b.ID, b.TourID, b.UserID, b.Price, b.Paid, b.PaidAt,
		b.CreatedAt, b.UpdatedAt,
		b.CreatedAt, b.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		booking.ID, booking.TourID, booking.UserID, booking.Price,
		booking.Paid, booking.PaidAt,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	return dberr.Wrap(err, "booking")
}

func (repository *PostgresRepository) UpdateByID(ctx context.Context, id string, patch map[string]any) (*Booking, error) {
	assignments := make([]string, 0, len(patch)+1)
	args := []any{id}

	for field, column := range patchColumns {
		raw, ok := patch[field]
		if !ok {
			continue
		}
		args = append(args, raw)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	assignments = append(assignments, schema.Booking.UpdatedAt+" = NOW()")

	query := fmt.Sprintf(`
		UPDATE %s SET %s WHERE %s = $1 RETURNING %s
	`,
		schema.Booking.Table, strings.Join(assignments, ", "),
		schema.Booking.ID, schema.Booking.ID,
	)

	var updatedID string
	if err := repository.db.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		return nil, dberr.Wrap(err, "booking")
	}

	return repository.FindByID(ctx, updatedID)
}

func (repository *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Booking.Table, schema.Booking.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "booking")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "booking")
	}
	return nil
}
