package movies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

const movieColumns = `m.id, m.name, m.director, m.year, m.rating, m.imdb_link, m.image_link`

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

// Create inserts movie unless a movie with the same id exists, in which
// case the stored record is left as is.
func (r *SQLRepository) Create(ctx context.Context, movie models.Movie) error {
	query := r.q(
		`INSERT INTO movies (id, name, director, year, rating, imdb_link, image_link)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		movie.ID, movie.Name, movie.Director, movie.Year, movie.Rating, movie.ImdbLink, movie.ImageLink)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Movie, error) {
	query := r.q(`SELECT ` + movieColumns + ` FROM movies m WHERE m.id = ?`)

	m := &models.Movie{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Name, &m.Director, &m.Year, &m.Rating, &m.ImdbLink, &m.ImageLink)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// Update writes director, year and rating. The name column is never
// touched.
func (r *SQLRepository) Update(ctx context.Context, id string, upd models.MovieUpdate) error {
	query := r.q(
		`UPDATE movies SET director = ?, year = ?, rating = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, upd.Director, upd.Year, upd.Rating, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM movies WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// ListByUser returns the user's movies in the order they were added.
func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]models.Movie, error) {
	query := r.q(
		`SELECT ` + movieColumns + `
		 FROM user_movies um
		 JOIN movies m ON m.id = um.movie_id
		 WHERE um.user_id = ?
		 ORDER BY um.id`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.Name, &m.Director, &m.Year, &m.Rating, &m.ImdbLink, &m.ImageLink); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Associate links the user to the movie. An existing link is kept.
func (r *SQLRepository) Associate(ctx context.Context, userID int64, movieID string) error {
	query := r.q(
		`INSERT INTO user_movies (user_id, movie_id)
		 VALUES (?, ?)
		 ON CONFLICT (user_id, movie_id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, userID, movieID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Dissociate removes one link; common.ErrNotFound if it did not exist.
func (r *SQLRepository) Dissociate(ctx context.Context, userID int64, movieID string) error {
	res, err := r.db.ExecContext(ctx,
		r.q(`DELETE FROM user_movies WHERE user_id = ? AND movie_id = ?`), userID, movieID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) DissociateUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM user_movies WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) IsAssociated(ctx context.Context, userID int64, movieID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM user_movies WHERE user_id = ? AND movie_id = ?`), userID, movieID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) CountOwners(ctx context.Context, movieID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM user_movies WHERE movie_id = ?`), movieID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
