// Package catalog looks up movie metadata in the OMDb API and normalizes it
// into a models.Movie.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

// ErrMovieNotFound is returned when the catalog has no movie for a title.
var ErrMovieNotFound = fmt.Errorf("%w: movie not found in catalog", common.ErrNotFound)

const imdbTitleURL = "https://www.imdb.com/title/%s/"

// Lookup is the catalog capability consumed by the application.
type Lookup interface {
	GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error)
}

type Client struct {
	http    *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &fasthttp.Client{Name: "movieweb"},
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type omdbMovie struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
}

// GetMovieByTitle fetches the best match for title. The returned record is
// trusted as is; year and rating are only validated on later updates.
func (c *Client) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: movie title is required", common.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("omdb url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	u.RawQuery = q.Encode()

	req := fasthttp.AcquireRequest()
	rsp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseResponse(rsp)
		fasthttp.ReleaseRequest(req)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(u.String())

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, rsp, deadline); err != nil {
		return nil, fmt.Errorf("omdb request: %w", err)
	}
	if rsp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("omdb: unexpected status %d", rsp.StatusCode())
	}

	var m omdbMovie
	if err := json.Unmarshal(rsp.Body(), &m); err != nil {
		return nil, fmt.Errorf("omdb response: %w", err)
	}

	if m.Response == "False" || m.ImdbID == "" {
		return nil, fmt.Errorf("%w: %q (%s)", ErrMovieNotFound, title, m.Error)
	}

	return &models.Movie{
		ID:        m.ImdbID,
		Name:      m.Title,
		Director:  m.Director,
		Year:      m.Year,
		Rating:    m.ImdbRating,
		ImdbLink:  fmt.Sprintf(imdbTitleURL, m.ImdbID),
		ImageLink: m.Poster,
	}, nil
}
