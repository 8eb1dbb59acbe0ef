// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

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
	"review": schema.Review.Review,
	"rating": schema.Review.Rating,
}

// PostgresRepository implements the CRUD accessor backed by core.review,
// joining users.account for the author name.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func selectColumns() string {
	r := schema.Review
	return fmt.Sprintf(
		"r.%s, r.%s, r.%s, r.%s, r.%s, a.%s AS authorname, r.%s, r.%s",
		r.ID, r.Review, r.Rating, r.TourID, r.UserID,
		schema.UserAccount.Name, r.CreatedAt, r.UpdatedAt,
	)
}

func fromClause() string {
	return fmt.Sprintf("%s r JOIN %s a ON a.%s = r.%s",
		schema.Review.Table, schema.UserAccount.Table,
		schema.UserAccount.ID, schema.Review.UserID,
	)
}

func scanReview(row pgx.Row, extra ...any) (*Review, error) {
	review := &Review{}
	dest := []any{
		&review.ID, &review.Review, &review.Rating, &review.TourID,
		&review.UserID, &review.AuthorName, &review.CreatedAt, &review.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return review, nil
}

func (repository *PostgresRepository) FindMany(ctx context.Context, spec listing.Spec) ([]*Review, int, error) {
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
		return nil, 0, dberr.Wrap(err, "review")
	}
	defer rows.Close()

	var reviews []*Review
	var total int
	for rows.Next() {
		review, err := scanReview(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "review")
		}
		reviews = append(reviews, review)
	}

	if len(reviews) == 0 {
		total, err = repository.countMatching(ctx, spec)
		if err != nil {
			return nil, 0, err
		}
	}

	return reviews, total, nil
}

func (repository *PostgresRepository) countMatching(ctx context.Context, spec listing.Spec) (int, error) {
	compiled := spec.Compile(Schema(), 1)

	query := fmt.Sprintf(`SELECT count(*) FROM %s r WHERE TRUE%s`,
		schema.Review.Table, compiled.Where,
	)

	var total int
	if err := repository.db.QueryRow(ctx, query, compiled.Args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "review")
	}
	return total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE r.%s = $1`,
		selectColumns(), fromClause(), schema.Review.ID,
	)

	review, err := scanReview(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "review")
	}
	return review, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, review *Review) error {
	r := schema.Review
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s, %s
	`,
		r.Table, r.ID, r.Review, r.Rating, r.TourID, r.UserID, r.CreatedAt, r.UpdatedAt,
		r.CreatedAt, r.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		review.ID, review.Review, review.Rating, review.TourID, review.UserID,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	return dberr.Wrap(err, "review")
}

func (repository *PostgresRepository) UpdateByID(ctx context.Context, id string, patch map[string]any) (*Review, error) {
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
	assignments = append(assignments, schema.Review.UpdatedAt+" = NOW()")

	query := fmt.Sprintf(`
		UPDATE %s SET %s WHERE %s = $1 RETURNING %s
	`,
		schema.Review.Table, strings.Join(assignments, ", "),
		schema.Review.ID, schema.Review.ID,
	)

	var updatedID string
	if err := repository.db.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		return nil, dberr.Wrap(err, "review")
	}

	// Re-read through the join so the caller gets the author name back.
	return repository.FindByID(ctx, updatedID)
}

func (repository *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Review.Table, schema.Review.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "review")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "review")
	}
	return nil
}

// # Rating Aggregates

/*
RecomputeTourRatings rewrites the parent tour's rating aggregates from the
surviving reviews in one statement.

A tour with no reviews falls back to the 4.5 seed average so the catalogue
sort stays stable.

Parameters:
  - ctx: Request context.
  - tourID: The tour whose aggregates changed.

Returns:
  - error: Wrapped database error, if any.
*/
func (repository *PostgresRepository) RecomputeTourRatings(ctx context.Context, tourID string) error {
	t := schema.Tour
	r := schema.Review
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = agg.quantity,
			%s = agg.average,
			%s = NOW()
		FROM (
			SELECT count(*) AS quantity, COALESCE(ROUND(avg(%s), 1), 4.5) AS average
			FROM %s WHERE %s = $1
		) agg
		WHERE %s = $1
	`,
		t.Table, t.RatingsQuantity, t.RatingsAverage, t.UpdatedAt,
		r.Rating, r.Table, r.TourID,
		t.ID,
	)

	_, err := repository.db.Exec(ctx, query, tourID)
	if err != nil {
		return dberr.Wrap(err, "tour_ratings")
	}
	return nil
}
