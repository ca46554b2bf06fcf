package flatfile

import (
	"github.com/dmitrijs2005/movieweb/internal/models"
)

// userRecord is one element of the persisted collection. Movies are
// embedded per user; reviews live with their author.
type userRecord struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Movies   []models.Movie `json:"movies"`
	Password string         `json:"password,omitempty"`
	Avatar   string         `json:"avatar,omitempty"`
	Reviews  []reviewRecord `json:"reviews,omitempty"`
}

type reviewRecord struct {
	ID      int64  `json:"id"`
	MovieID string `json:"movie_id"`
	Text    string `json:"text"`
}

// collection is the whole store, loaded fresh for every call.
type collection []*userRecord

func (c collection) user(id int64) *userRecord {
	for _, u := range c {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (c collection) userByName(name string) *userRecord {
	for _, u := range c {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func (c collection) maxUserID() int64 {
	var top int64
	for _, u := range c {
		top = max(top, u.ID)
	}
	return top
}

func (c collection) maxReviewID() int64 {
	var top int64
	for _, u := range c {
		for _, r := range u.Reviews {
			top = max(top, r.ID)
		}
	}
	return top
}

// sequence is the high-water mark of issued ids, kept beside the store so
// that ids of deleted records are never handed out again.
type sequence struct {
	LastUserID   int64 `json:"last_user_id"`
	LastReviewID int64 `json:"last_review_id"`

	dirty bool
}

func (q *sequence) nextUserID(c collection) int64 {
	q.LastUserID = max(q.LastUserID, c.maxUserID()) + 1
	q.dirty = true
	return q.LastUserID
}

func (q *sequence) nextReviewID(c collection) int64 {
	q.LastReviewID = max(q.LastReviewID, c.maxReviewID()) + 1
	q.dirty = true
	return q.LastReviewID
}

// movie returns the first embedded copy of the movie. All copies are kept
// identical, so any of them is canonical.
func (c collection) movie(id string) *models.Movie {
	for _, u := range c {
		if i := u.movieIndex(id); i >= 0 {
			m := u.Movies[i]
			return &m
		}
	}
	return nil
}

// updateMovie rewrites every embedded copy of the movie.
func (c collection) updateMovie(id string, upd models.MovieUpdate) {
	for _, u := range c {
		if i := u.movieIndex(id); i >= 0 {
			u.Movies[i] = upd.Apply(u.Movies[i])
		}
	}
}

// purgeReviews drops every review of the movie, whoever wrote it.
func (c collection) purgeReviews(movieID string) {
	for _, u := range c {
		u.removeReview(movieID)
	}
}

func (c collection) remove(id int64) collection {
	out := c[:0]
	for _, u := range c {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func (u *userRecord) movieIndex(id string) int {
	for i, m := range u.Movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (u *userRecord) review(movieID string) *reviewRecord {
	for i := range u.Reviews {
		if u.Reviews[i].MovieID == movieID {
			return &u.Reviews[i]
		}
	}
	return nil
}

func (u *userRecord) removeReview(movieID string) bool {
	for i, r := range u.Reviews {
		if r.MovieID == movieID {
			u.Reviews = append(u.Reviews[:i], u.Reviews[i+1:]...)
			return true
		}
	}
	return false
}

func (u *userRecord) snapshot() *models.User {
	movies := make([]models.Movie, len(u.Movies))
	copy(movies, u.Movies)
	return &models.User{
		ID:       u.ID,
		Name:     u.Name,
		Movies:   movies,
		Password: u.Password,
		Avatar:   u.Avatar,
	}
}
