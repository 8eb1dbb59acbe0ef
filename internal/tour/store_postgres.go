// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tour

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

// patchColumns maps public PATCH field names to their columns. The handler
// has already allowlisted the keys; this is the identifier boundary.
var patchColumns = map[string]string{
	"name":           schema.Tour.Name,
	"duration":       schema.Tour.Duration,
	"max_group_size": schema.Tour.MaxGroupSize,
	"difficulty":     schema.Tour.Difficulty,
	"price":          schema.Tour.Price,
	"price_discount": schema.Tour.PriceDiscount,
	"summary":        schema.Tour.Summary,
	"description":    schema.Tour.Description,
	"image_cover":    schema.Tour.ImageCover,
	"images":         schema.Tour.Images,
	"start_dates":    schema.Tour.StartDates,
}

// PostgresRepository implements the CRUD accessor backed by core.tour.
//
// Secret tours are excluded from every read; they exist only for staff
// tooling that queries the table directly.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func selectColumns() string {
	s := schema.Tour
	cols := []string{
		s.ID, s.Name, s.Slug, s.Duration, s.MaxGroupSize, s.Difficulty,
		s.RatingsAverage, s.RatingsQuantity, s.Price, s.PriceDiscount,
		s.Summary, s.Description, s.ImageCover, s.Images, s.StartDates,
		s.SecretTour, s.CreatedAt, s.UpdatedAt,
	}
	for i, col := range cols {
		cols[i] = "t." + col
	}
	return strings.Join(cols, ", ")
}

func (repository *PostgresRepository) FindMany(ctx context.Context, spec listing.Spec) ([]*Tour, int, error) {
	compiled := spec.Compile(Schema(), 1)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s t
		WHERE t.%s = FALSE%s
		%s
		LIMIT %d OFFSET %d
	`,
		selectColumns(), schema.Tour.Table, schema.Tour.SecretTour,
		compiled.Where, compiled.OrderBy, compiled.Limit, compiled.Offset,
	)

	rows, err := repository.db.Query(ctx, query, compiled.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "tour")
	}
	defer rows.Close()

	var tours []*Tour
	var total int
	for rows.Next() {
		t := &Tour{}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
			&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
			&t.Summary, &t.Description, &t.ImageCover, &t.Images, &t.StartDates,
			&t.SecretTour, &t.CreatedAt, &t.UpdatedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "tour")
		}
		tours = append(tours, t)
	}

	// An empty page past the end carries no window count; fetch it so the
	// caller can tell "out of range" from "empty collection".
	if len(tours) == 0 {
		total, err = repository.countMatching(ctx, spec)
		if err != nil {
			return nil, 0, err
		}
	}

	return tours, total, nil
}

func (repository *PostgresRepository) countMatching(ctx context.Context, spec listing.Spec) (int, error) {
	compiled := spec.Compile(Schema(), 1)

	query := fmt.Sprintf(`SELECT count(*) FROM %s t WHERE t.%s = FALSE%s`,
		schema.Tour.Table, schema.Tour.SecretTour, compiled.Where,
	)

	var total int
	if err := repository.db.QueryRow(ctx, query, compiled.Args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "tour")
	}
	return total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Tour, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s t WHERE t.%s = $1 AND t.%s = FALSE
	`, selectColumns(), schema.Tour.Table, schema.Tour.ID, schema.Tour.SecretTour)

	t := &Tour{}
	err := repository.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover, &t.Images, &t.StartDates,
		&t.SecretTour, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "tour")
	}
	return t, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, t *Tour) error {
	s := schema.Tour
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING %s, %s
	`,
		s.Table, s.ID, s.Name, s.Slug, s.Duration, s.MaxGroupSize, s.Difficulty,
		s.RatingsAverage, s.RatingsQuantity, s.Price, s.PriceDiscount,
		s.Summary, s.Description, s.ImageCover, s.Images, s.StartDates,
		s.SecretTour, s.CreatedAt, s.UpdatedAt,
		s.CreatedAt, s.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		t.ID, t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, t.Images, t.StartDates,
		t.SecretTour,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return dberr.Wrap(err, "tour")
}

func (repository *PostgresRepository) UpdateByID(ctx context.Context, id string, patch map[string]any) (*Tour, error) {
	assignments := make([]string, 0, len(patch)+1)
	args := []any{id}

	for field, value := range patchColumns {
		raw, ok := patch[field]
		if !ok {
			continue
		}
		args = append(args, raw)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", value, len(args)))
	}
	assignments = append(assignments, schema.Tour.UpdatedAt+" = NOW()")

	query := fmt.Sprintf(`
		UPDATE %s t SET %s
		WHERE t.%s = $1 AND t.%s = FALSE
		RETURNING %s
	`,
		schema.Tour.Table, strings.Join(assignments, ", "),
		schema.Tour.ID, schema.Tour.SecretTour, selectColumns(),
	)

	t := &Tour{}
	err := repository.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover, &t.Images, &t.StartDates,
		&t.SecretTour, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "tour")
	}
	return t, nil
}

func (repository *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Tour.Table, schema.Tour.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "tour")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "tour")
	}
	return nil
}

// # Aggregates

// DifficultyStats summarizes the catalogue for one difficulty level.
type DifficultyStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"num_tours"`
	NumRatings int     `json:"num_ratings"`
	AvgRating  float64 `json:"avg_rating"`
	AvgPrice   float64 `json:"avg_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

// Stats aggregates the catalogue per difficulty, hardest first excluded —
// ordered by average price ascending like the public stats page shows it.
func (repository *PostgresRepository) Stats(ctx context.Context) ([]*DifficultyStats, error) {
	s := schema.Tour
	query := fmt.Sprintf(`
		SELECT %s,
			count(*) AS numtours,
			COALESCE(sum(%s), 0) AS numratings,
			COALESCE(avg(%s), 0) AS avgrating,
			COALESCE(avg(%s), 0) AS avgprice,
			COALESCE(min(%s), 0) AS minprice,
			COALESCE(max(%s), 0) AS maxprice
		FROM %s
		WHERE %s = FALSE
		GROUP BY %s
		ORDER BY avgprice ASC
	`,
		s.Difficulty, s.RatingsQuantity, s.RatingsAverage, s.Price, s.Price, s.Price,
		s.Table, s.SecretTour, s.Difficulty,
	)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "tour_stats")
	}
	defer rows.Close()

	var stats []*DifficultyStats
	for rows.Next() {
		entry := &DifficultyStats{}
		if err := rows.Scan(
			&entry.Difficulty, &entry.NumTours, &entry.NumRatings,
			&entry.AvgRating, &entry.AvgPrice, &entry.MinPrice, &entry.MaxPrice,
		); err != nil {
			return nil, dberr.Wrap(err, "tour_stats")
		}
		stats = append(stats, entry)
	}

	return stats, nil
}
