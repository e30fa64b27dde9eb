package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/biz"
	"cinescope/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"
)

const (
	// tmdbPageSize is the fixed page size of TMDB list endpoints
	tmdbPageSize = 20

	posterSize   = "w500"
	backdropSize = "original"
)

var errCatalogNotFound = errors.New("not found")

// statusError is a non-2xx catalog response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// retryable reports whether another attempt could succeed
func retryable(err error) bool {
	if errors.Is(err, errCatalogNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

type catalogClient struct {
	client       *http.Client
	baseURL      string
	imageBaseURL string
	apiKey       string
	maxRetries   int
	limiter      *rate.Limiter
	cacheTTL     time.Duration
	data         *Data
	log          *log.Helper
}

// NewCatalogClient creates a new TMDB catalog client
func NewCatalogClient(c *conf.Catalog, data *Data, logger log.Logger) biz.CatalogClient {
	limit := rate.Inf
	if c.Rps > 0 {
		limit = rate.Limit(c.Rps)
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	return &catalogClient{
		client: &http.Client{
			Timeout: c.Timeout.AsDuration(),
		},
		baseURL:      strings.TrimRight(c.BaseUrl, "/"),
		imageBaseURL: strings.TrimRight(c.ImageBaseUrl, "/"),
		apiKey:       c.ApiKey,
		maxRetries:   int(c.MaxRetries),
		limiter:      rate.NewLimiter(limit, burst),
		cacheTTL:     c.CacheTtl.AsDuration(),
		data:         data,
		log:          log.NewHelper(logger),
	}
}

func (c *catalogClient) GetMovie(ctx context.Context, tmdbID int64) (*biz.CatalogMovie, error) {
	var m tmdbMovie
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(tmdbID, 10), nil, &m); err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, biz.ErrMovieNotFound
	}

	genres := make([]biz.Genre, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, biz.Genre{ID: g.ID, Name: g.Name})
	}

	movie := &biz.CatalogMovie{
		TMDBID:      m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterURL:   c.imageURL(posterSize, m.PosterPath),
		BackdropURL: c.imageURL(backdropSize, m.BackdropPath),
		Runtime:     m.Runtime,
		Genres:      genres,
		VoteAverage: m.VoteAverage,
	}
	if m.ReleaseDate != "" {
		if t, err := time.Parse("2006-01-02", m.ReleaseDate); err == nil {
			movie.ReleaseDate = &t
		}
	}
	return movie, nil
}

func (c *catalogClient) Search(ctx context.Context, query string, page int32) (*biz.MoviePage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(int(page)))
	return c.page(ctx, "/search/movie", params)
}

func (c *catalogClient) Discover(ctx context.Context, q *biz.DiscoverQuery) (*biz.MoviePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(int(q.Page)))
	params.Set("sort_by", q.SortBy)
	if q.Genre != nil {
		params.Set("with_genres", strconv.FormatInt(*q.Genre, 10))
	}
	if q.Year != nil {
		params.Set("primary_release_year", strconv.Itoa(int(*q.Year)))
	}
	if q.MinRating != nil {
		params.Set("vote_average.gte", strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	return c.page(ctx, "/discover/movie", params)
}

func (c *catalogClient) Popular(ctx context.Context) ([]*biz.MovieSummary, error) {
	page, err := c.page(ctx, "/movie/popular", url.Values{"page": {"1"}})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *catalogClient) Trending(ctx context.Context) ([]*biz.MovieSummary, error) {
	page, err := c.page(ctx, "/trending/movie/week", url.Values{"page": {"1"}})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *catalogClient) Genres(ctx context.Context) ([]biz.Genre, error) {
	var resp tmdbGenreList
	if err := c.getCached(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	genres := make([]biz.Genre, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		genres = append(genres, biz.Genre{ID: g.ID, Name: g.Name})
	}
	return genres, nil
}

func (c *catalogClient) page(ctx context.Context, path string, params url.Values) (*biz.MoviePage, error) {
	var resp tmdbPage
	if err := c.getCached(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	items := make([]*biz.MovieSummary, 0, len(resp.Results))
	for _, m := range resp.Results {
		items = append(items, &biz.MovieSummary{
			TMDBID:      m.ID,
			Title:       m.Title,
			Overview:    m.Overview,
			PosterURL:   c.imageURL(posterSize, m.PosterPath),
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
			GenreIDs:    m.GenreIDs,
		})
	}
	return &biz.MoviePage{
		Items:      items,
		Page:       resp.Page,
		Limit:      tmdbPageSize,
		Total:      resp.TotalResults,
		TotalPages: resp.TotalPages,
	}, nil
}

// getCached is get with a Redis read-through cache for listing endpoints
func (c *catalogClient) getCached(ctx context.Context, path string, params url.Values, out any) error {
	if c.data == nil || c.data.rdb == nil || c.cacheTTL <= 0 {
		return c.get(ctx, path, params, out)
	}

	cacheKey := "catalog:" + path + "?" + params.Encode()
	if cached, err := c.data.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		if err := json.Unmarshal(cached, out); err == nil {
			c.log.Debugf("cache hit for catalog listing: %s", cacheKey)
			return nil
		}
	}

	if err := c.get(ctx, path, params, out); err != nil {
		return err
	}

	if data, err := json.Marshal(out); err == nil {
		c.data.rdb.Set(ctx, cacheKey, data, c.cacheTTL)
	}
	return nil
}

// get performs a catalog request with retries and translates failures into
// biz errors: a 404 becomes ErrMovieNotFound, everything else
// ErrUpstreamUnavailable.
func (c *catalogClient) get(ctx context.Context, path string, params url.Values, out any) error {
	var lastErr error

	// Retry logic with linear backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			if err := sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
			c.log.Infof("retrying catalog request %s, attempt %d/%d", path, attempt, c.maxRetries)
		}

		err := c.doRequest(ctx, path, params, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}

	if errors.Is(lastErr, errCatalogNotFound) {
		return biz.ErrMovieNotFound
	}
	c.log.Warnf("catalog request %s failed after %d attempts: %v", path, c.maxRetries+1, lastErr)
	return biz.ErrUpstreamUnavailable.WithCause(lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *catalogClient) doRequest(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle non-200 responses
	if resp.StatusCode == http.StatusNotFound {
		return errCatalogNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *catalogClient) imageURL(size string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := c.imageBaseURL + "/" + size + *path
	return &u
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbMovie struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Overview     string      `json:"overview"`
	PosterPath   *string     `json:"poster_path"`
	BackdropPath *string     `json:"backdrop_path"`
	ReleaseDate  string      `json:"release_date"`
	VoteAverage  float64     `json:"vote_average"`
	Runtime      int32       `json:"runtime"`
	GenreIDs     []int64     `json:"genre_ids,omitempty"`
	Genres       []tmdbGenre `json:"genres,omitempty"`
}

type tmdbPage struct {
	Page         int32       `json:"page"`
	Results      []tmdbMovie `json:"results"`
	TotalPages   int32       `json:"total_pages"`
	TotalResults int64       `json:"total_results"`
}

type tmdbGenreList struct {
	Genres []tmdbGenre `json:"genres"`
}
