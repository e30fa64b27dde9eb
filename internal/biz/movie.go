package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	// featuredCount is how many movies the featured and trending rails show
	featuredCount = 6
	// catalogPageSize is the fixed page size of catalog listings
	catalogPageSize = 20
	defaultTopRated = 10
	maxTopRated     = 50
)

// MovieUseCase is the catalog mirror: it resolves catalog ids to local
// movie rows and serves read-through catalog listings.
type MovieUseCase struct {
	repo         MovieRepo
	catalog      CatalogClient
	refreshAfter time.Duration
	group        singleflight.Group
	log          *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(repo MovieRepo, catalog CatalogClient, c *conf.Catalog, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		repo:         repo,
		catalog:      catalog,
		refreshAfter: c.RefreshAfter.AsDuration(),
		log:          log.NewHelper(logger),
	}
}

// ResolveMovie returns the local mirror row for a catalog id, fetching and
// persisting it on first access.
func (uc *MovieUseCase) ResolveMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	if tmdbID <= 0 {
		return nil, ValidationError("movie id must be a positive integer")
	}

	movie, err := uc.repo.GetMovieByTMDBID(ctx, tmdbID)
	if err == nil {
		if uc.isStale(movie) {
			return uc.refreshStale(ctx, movie), nil
		}
		return movie, nil
	}
	if !errors.Is(err, ErrMovieNotFound) {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return uc.mirror(ctx, tmdbID)
}

// LookupMovie returns the mirror row without contacting the catalog.
func (uc *MovieUseCase) LookupMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	if tmdbID <= 0 {
		return nil, ValidationError("movie id must be a positive integer")
	}
	return uc.repo.GetMovieByTMDBID(ctx, tmdbID)
}

// GetMovie returns movie details backed by the local mirror
func (uc *MovieUseCase) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	return uc.ResolveMovie(ctx, tmdbID)
}

// RefreshMovie forces a metadata resync from the catalog. A movie that is not
// mirrored yet is mirrored instead, which already reads fresh metadata.
func (uc *MovieUseCase) RefreshMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	movie, err := uc.LookupMovie(ctx, tmdbID)
	if errors.Is(err, ErrMovieNotFound) {
		return uc.mirror(ctx, tmdbID)
	}
	if err != nil {
		return nil, err
	}

	cm, err := uc.catalog.GetMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	applyCatalog(movie, cm)
	if err := uc.repo.UpdateMetadata(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to refresh movie: %w", err)
	}
	uc.log.WithContext(ctx).Infof("refreshed movie %d from catalog", tmdbID)
	return movie, nil
}

// mirror fetches a catalog record and inserts it. Concurrent callers for the
// same id share one fetch; callers in other processes are reconciled by the
// unique index on tmdb_id inside InsertOrGet.
func (uc *MovieUseCase) mirror(ctx context.Context, tmdbID int64) (*Movie, error) {
	v, err, _ := uc.group.Do(strconv.FormatInt(tmdbID, 10), func() (any, error) {
		// Detached so one caller's cancellation does not fail the others
		fetchCtx := context.WithoutCancel(ctx)

		cm, err := uc.catalog.GetMovie(fetchCtx, tmdbID)
		if err != nil {
			return nil, err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate movie ID: %w", err)
		}
		movie := &Movie{ID: id.String()}
		applyCatalog(movie, cm)

		stored, err := uc.repo.InsertOrGet(fetchCtx, movie)
		if err != nil {
			return nil, fmt.Errorf("failed to mirror movie: %w", err)
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	// Copy so callers sharing the flight don't alias one struct
	movie := *v.(*Movie)
	return &movie, nil
}

func (uc *MovieUseCase) isStale(movie *Movie) bool {
	return uc.refreshAfter > 0 && time.Since(movie.SyncedAt) > uc.refreshAfter
}

// refreshStale updates metadata from the catalog, serving the stale row if
// the catalog cannot be reached.
func (uc *MovieUseCase) refreshStale(ctx context.Context, movie *Movie) *Movie {
	cm, err := uc.catalog.GetMovie(ctx, movie.TMDBID)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("failed to refresh stale movie %d: %v", movie.TMDBID, err)
		return movie
	}

	refreshed := *movie
	applyCatalog(&refreshed, cm)
	if err := uc.repo.UpdateMetadata(ctx, &refreshed); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to store refreshed movie %d: %v", movie.TMDBID, err)
		return movie
	}
	return &refreshed
}

// applyCatalog copies catalog metadata onto a mirror row. Aggregate rating
// fields belong to the review ledger and are left alone.
func applyCatalog(movie *Movie, cm *CatalogMovie) {
	movie.TMDBID = cm.TMDBID
	movie.Title = cm.Title
	movie.Overview = cm.Overview
	movie.PosterURL = cm.PosterURL
	movie.BackdropURL = cm.BackdropURL
	movie.ReleaseDate = cm.ReleaseDate
	movie.Runtime = cm.Runtime
	movie.Genres = cm.Genres
	movie.VoteAverage = cm.VoteAverage
	movie.SyncedAt = time.Now().UTC()
}

// Search runs a catalog text search
func (uc *MovieUseCase) Search(ctx context.Context, query string, page int32) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ValidationError("query parameter required")
	}
	if page < 1 {
		page = 1
	}
	return uc.catalog.Search(ctx, query, page)
}

// ListMovies retrieves a page of catalog movies matching the filter. The
// filter's page and limit address the catalog's result list, so one listing
// page may span two or more catalog pages.
func (uc *MovieUseCase) ListMovies(ctx context.Context, filter *MovieFilter) (*MoviePage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	fetch := func(p int32) (*MoviePage, error) {
		if filter.SearchQuery != "" {
			return uc.catalog.Search(ctx, filter.SearchQuery, p)
		}
		q := filter.DiscoverQuery()
		q.Page = p
		return uc.catalog.Discover(ctx, q)
	}

	offset := int64(filter.Page-1) * int64(filter.Limit)
	catalogPage := int32(offset/catalogPageSize) + 1
	skip := int(offset % catalogPageSize)

	out := &MoviePage{Page: filter.Page, Limit: filter.Limit, Items: []*MovieSummary{}}
	for len(out.Items) < int(filter.Limit) {
		resp, err := fetch(catalogPage)
		if err != nil {
			return nil, err
		}
		out.Total = resp.Total

		items := resp.Items
		if skip >= len(items) {
			items = nil
		} else {
			items = items[skip:]
		}
		skip = 0
		if room := int(filter.Limit) - len(out.Items); len(items) > room {
			items = items[:room]
		}
		out.Items = append(out.Items, items...)

		if len(resp.Items) < catalogPageSize || catalogPage >= resp.TotalPages {
			break
		}
		catalogPage++
	}

	out.TotalPages = int32((out.Total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return out, nil
}

// ListFeatured returns the head of the catalog's popular list
func (uc *MovieUseCase) ListFeatured(ctx context.Context) ([]*MovieSummary, error) {
	movies, err := uc.catalog.Popular(ctx)
	if err != nil {
		return nil, err
	}
	return head(movies, featuredCount), nil
}

// ListTrending returns the head of the catalog's weekly trending list
func (uc *MovieUseCase) ListTrending(ctx context.Context) ([]*MovieSummary, error) {
	movies, err := uc.catalog.Trending(ctx)
	if err != nil {
		return nil, err
	}
	return head(movies, featuredCount), nil
}

// ListGenres returns the catalog genre list
func (uc *MovieUseCase) ListGenres(ctx context.Context) ([]Genre, error) {
	return uc.catalog.Genres(ctx)
}

// TopRated lists mirrored movies by local aggregate rating
func (uc *MovieUseCase) TopRated(ctx context.Context, limit int) ([]*Movie, error) {
	if limit <= 0 {
		limit = defaultTopRated
	}
	if limit > maxTopRated {
		limit = maxTopRated
	}
	movies, err := uc.repo.TopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top rated movies: %w", err)
	}
	return movies, nil
}

func head(movies []*MovieSummary, n int) []*MovieSummary {
	if len(movies) > n {
		return movies[:n]
	}
	return movies
}
