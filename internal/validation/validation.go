// Package validation holds the pure field rules applied by both storage
// backends before any write is staged.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

const (
	// MinYear is the year of the first known motion picture.
	MinYear = 1888

	// YearRangeSeparator joins the two years of a range (en dash, U+2013).
	YearRangeSeparator = "–"

	MaxUserNameLength = 15
	MinPasswordLength = 6
	MinReviewLength   = 50

	MinRating = 1.0
	MaxRating = 10.0
)

// IsValidYear reports whether year is a single year or an en-dash range
// with every component in [MinYear, current year] and start <= end.
func IsValidYear(year string) bool {
	return IsValidYearAt(year, time.Now())
}

// IsValidYearAt is IsValidYear evaluated against the calendar year of now.
func IsValidYearAt(year string, now time.Time) bool {
	current := now.Year()

	start, end, isRange := strings.Cut(year, YearRangeSeparator)
	if !isRange {
		y, ok := parseYear(year)
		return ok && y >= MinYear && y <= current
	}

	from, ok := parseYear(start)
	if !ok {
		return false
	}
	to, ok := parseYear(end)
	if !ok {
		return false
	}
	if from > to {
		return false
	}
	return from >= MinYear && to <= current
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}

// IsValidRating reports whether rating is a decimal in [1, 10] written with
// at most one digit after the decimal point.
func IsValidRating(rating string) bool {
	_, ok := parseRating(rating)
	return ok
}

func parseRating(rating string) (float64, bool) {
	whole, frac, hasPoint := strings.Cut(rating, ".")
	if whole == "" || !isDigits(whole) {
		return 0, false
	}
	if hasPoint && (len(frac) > 1 || !isDigits(frac)) {
		return 0, false
	}

	f, err := strconv.ParseFloat(rating, 64)
	if err != nil {
		return 0, false
	}
	if f < MinRating || f > MaxRating {
		return 0, false
	}
	return f, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeRating returns the canonical one-decimal form of a valid rating
// ("7" becomes "7.0").
func NormalizeRating(rating string) (string, error) {
	f, ok := parseRating(rating)
	if !ok {
		return "", fmt.Errorf("%w: rating %q must be a number between 1 and 10 with up to one decimal", common.ErrInvalidInput, rating)
	}
	return strconv.FormatFloat(f, 'f', 1, 64), nil
}

// ValidateUserName checks a new user's name.
func ValidateUserName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: user name cannot be empty", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return fmt.Errorf("%w: user name can be %d characters long maximum", common.ErrInvalidInput, MaxUserNameLength)
	}
	return nil
}

// ValidatePassword checks a supplied password. Callers skip it when no
// password was given.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password length must be at least %d characters", common.ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// ValidateReviewText checks review text length.
func ValidateReviewText(text string) error {
	if utf8.RuneCountInString(text) < MinReviewLength {
		return fmt.Errorf("%w: review needs to be at least %d characters long", common.ErrInvalidInput, MinReviewLength)
	}
	return nil
}

// ValidateMovieUpdate checks upd against the stored movie and returns the
// update with its rating normalized. It never touches storage.
func ValidateMovieUpdate(current models.Movie, upd models.MovieUpdate, now time.Time) (models.MovieUpdate, error) {
	if upd.Name != "" && upd.Name != current.Name {
		return upd, fmt.Errorf("%w: movie name cannot be changed", common.ErrInvalidInput)
	}
	if !IsValidYearAt(upd.Year, now) {
		return upd, fmt.Errorf("%w: movie year should be from %d to %d, optionally as a range", common.ErrInvalidInput, MinYear, now.Year())
	}
	rating, err := NormalizeRating(upd.Rating)
	if err != nil {
		return upd, err
	}
	upd.Rating = rating
	upd.Name = current.Name
	return upd, nil
}
