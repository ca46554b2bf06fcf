package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

var errInvalidCredentials = errors.New("invalid credentials")

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type errorView struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func exitCode(err error) int {
	switch common.Kind(err) {
	case "":
		return 0
	case "invalid_input":
		return 2
	case "not_found":
		return 3
	case "conflict":
		return 4
	case "unsupported":
		return 5
	case "storage_failure":
		return 6
	default:
		return 1
	}
}

// userView is a user as printed by the CLI; the password hash stays hidden.
type userView struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Registered bool           `json:"registered"`
	Avatar     string         `json:"avatar,omitempty"`
	Movies     []models.Movie `json:"movies"`
}

func newUserView(u *models.User) userView {
	movies := u.Movies
	if movies == nil {
		movies = []models.Movie{}
	}
	return userView{
		ID:         u.ID,
		Name:       u.Name,
		Registered: !u.IsPublic(),
		Avatar:     u.Avatar,
		Movies:     movies,
	}
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user id %q is not a number", common.ErrInvalidInput, s)
	}
	return id, nil
}
