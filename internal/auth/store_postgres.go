// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/trekora/internal/platform/database/schema"
	"github.com/taibuivan/trekora/internal/platform/dberr"
)

// PostgresRepository implements [UserRepository] backed by users.account.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = TRUE
	`,
		schema.UserAccount.ID, schema.UserAccount.Name, schema.UserAccount.Email,
		schema.UserAccount.Photo, schema.UserAccount.Role, schema.UserAccount.Password,
		schema.UserAccount.PasswordChangedAt, schema.UserAccount.Active,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.Active,
	)

	return repository.scanUser(ctx, query, id)
}

func (repository *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = TRUE
	`,
		schema.UserAccount.ID, schema.UserAccount.Name, schema.UserAccount.Email,
		schema.UserAccount.Photo, schema.UserAccount.Role, schema.UserAccount.Password,
		schema.UserAccount.PasswordChangedAt, schema.UserAccount.Active,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table, schema.UserAccount.Email, schema.UserAccount.Active,
	)

	return repository.scanUser(ctx, query, email)
}

func (repository *PostgresRepository) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.Name,
		schema.UserAccount.Email, schema.UserAccount.Photo, schema.UserAccount.Role,
		schema.UserAccount.Password, schema.UserAccount.Active,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.Photo, user.Role, user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return dberr.Wrap(err, "user")
}

func (repository *PostgresRepository) UpdateProfile(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = NOW()
		WHERE %s = $1 AND %s = TRUE
		RETURNING %s
	`,
		schema.UserAccount.Table, schema.UserAccount.Name, schema.UserAccount.Email,
		schema.UserAccount.Photo, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.Active,
		schema.UserAccount.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.Photo).
		Scan(&user.UpdatedAt)
	return dberr.Wrap(err, "user")
}

func (repository *PostgresRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	// The password-changed timestamp invalidates every token issued before
	// this statement commits.
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW(), %s = NOW()
		WHERE %s = $1 AND %s = TRUE
		RETURNING %s
	`,
		schema.UserAccount.Table, schema.UserAccount.Password,
		schema.UserAccount.PasswordChangedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.Active,
		schema.UserAccount.ID,
	)

	var id string
	err := repository.db.QueryRow(ctx, query, userID, newHash).Scan(&id)
	return dberr.Wrap(err, "user")
}

func (repository *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = FALSE, %s = NOW() WHERE %s = $1 AND %s = TRUE
	`,
		schema.UserAccount.Table, schema.UserAccount.Active, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.Active,
	)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "user")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "user")
	}
	return nil
}

func (repository *PostgresRepository) scanUser(ctx context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role,
		&user.PasswordHash, &user.PasswordChangedAt, &user.Active,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "user")
	}
	return user, nil
}
