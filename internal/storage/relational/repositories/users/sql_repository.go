// Package users stores user rows. Movies of a user are not loaded here.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Create inserts user and sets its ID. A taken name yields an error
// wrapping dbx.ErrDuplicate.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := dbx.Rebind(r.dialect,
		`INSERT INTO users (name, password, avatar)
		 VALUES (?, ?, ?)
		 RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		user.Name, nullString(user.Password), nullString(user.Avatar)).Scan(&user.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.MapError(err))
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := dbx.Rebind(r.dialect,
		`SELECT id, name, password, avatar FROM users
		 WHERE id = ?`)

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByName matches name exactly, case included.
func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := dbx.Rebind(r.dialect,
		`SELECT id, name, password, avatar FROM users
		 WHERE name = ?`)

	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.User, error) {
	var (
		user     models.User
		password sql.NullString
		avatar   sql.NullString
	)

	if err := row.Scan(&user.ID, &user.Name, &password, &avatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Password = password.String
	user.Avatar = avatar.String
	return &user, nil
}

// ListPublic returns users without a stored credential, oldest first.
func (r *SQLRepository) ListPublic(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM users
		 WHERE password IS NULL OR password = ''
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Delete removes the user row; common.ErrNotFound if there was none.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
