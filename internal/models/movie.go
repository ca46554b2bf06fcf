package models

// Movie is a catalog movie. ID is the external catalog identifier
// (e.g. "tt0120338") and is immutable, as is Name.
type Movie struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Director  string `json:"director"`
	Year      string `json:"year"`
	Rating    string `json:"rating"`
	ImdbLink  string `json:"imdb_link"`
	ImageLink string `json:"image_link"`
}

// MovieUpdate is the editable part of a movie. Name is only compared
// against the stored name; a differing non-empty Name is rejected.
type MovieUpdate struct {
	Name     string
	Director string
	Year     string
	Rating   string
}

// Apply returns m with the update's editable fields applied.
func (u MovieUpdate) Apply(m Movie) Movie {
	m.Director = u.Director
	m.Year = u.Year
	m.Rating = u.Rating
	return m
}

// Review is a single user's review of a movie.
type Review struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	MovieID string `json:"movie_id"`
	Text    string `json:"text"`
}

// MovieReview is a review as listed on a movie page.
type MovieReview struct {
	ReviewerName string `json:"user_name"`
	Text         string `json:"review"`
}
