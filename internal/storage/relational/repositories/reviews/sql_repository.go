package reviews

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

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Get(ctx context.Context, userID int64, movieID string) (*models.Review, error) {
	query := r.q(
		`SELECT id, user_id, movie_id, text FROM reviews
		 WHERE user_id = ? AND movie_id = ?`)

	rv := &models.Review{}
	err := r.db.QueryRowContext(ctx, query, userID, movieID).Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rv, nil
}

// Upsert creates the review of the (user, movie) pair or replaces its text
// in place, keeping the row id.
func (r *SQLRepository) Upsert(ctx context.Context, userID int64, movieID, text string) error {
	query := r.q(
		`INSERT INTO reviews (user_id, movie_id, text)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, movie_id) DO UPDATE SET text = excluded.text`)

	if _, err := r.db.ExecContext(ctx, query, userID, movieID, text); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID int64, movieID string) error {
	res, err := r.db.ExecContext(ctx,
		r.q(`DELETE FROM reviews WHERE user_id = ? AND movie_id = ?`), userID, movieID)
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

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM reviews WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteByMovie(ctx context.Context, movieID string) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM reviews WHERE movie_id = ?`), movieID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForMovie returns every review of the movie with its author's name,
// oldest review first.
func (r *SQLRepository) ListForMovie(ctx context.Context, movieID string) ([]models.MovieReview, error) {
	query := r.q(
		`SELECT u.name, r.text
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.movie_id = ?
		 ORDER BY r.id`)

	rows, err := r.db.QueryContext(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.MovieReview{}
	for rows.Next() {
		var mr models.MovieReview
		if err := rows.Scan(&mr.ReviewerName, &mr.Text); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, mr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
