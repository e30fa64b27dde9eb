package data

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cinescope/internal/biz"
	"cinescope/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieRepo_CacheReadThrough(t *testing.T) {
	d, mr := newTestDataWithRedis(t)
	repo := NewMovieRepo(d, log.DefaultLogger)
	ctx := context.Background()

	movie := seedMovie(t, d, 550)
	assert.False(t, mr.Exists(movieCacheKey(550)))

	got, err := repo.GetMovieByTMDBID(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, movie.ID, got.ID)
	assert.True(t, mr.Exists(movieCacheKey(550)))

	// A direct write bypasses invalidation, so the cached row is served
	require.NoError(t, d.db.Model(&Movie{}).Where("id = ?", movie.ID).Update("title", "Changed").Error)
	got, err = repo.GetMovieByTMDBID(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, "Movie 550", got.Title)

	movie.Title = "Fight Club"
	require.NoError(t, repo.UpdateMetadata(ctx, movie))
	assert.False(t, mr.Exists(movieCacheKey(550)))

	got, err = repo.GetMovieByTMDBID(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", got.Title)
}

func TestMovieRepo_StaleReadIsNotCached(t *testing.T) {
	d, mr := newTestDataWithRedis(t)
	repo := NewMovieRepo(d, log.DefaultLogger).(*movieRepo)
	ctx := context.Background()

	movie := seedMovie(t, d, 550)

	// A reader captured the generation and the row, then a write committed
	gen, _ := mr.Get(movieGenKey(550))
	repo.invalidate(ctx, 550)
	repo.cacheMovie(ctx, movie, gen)
	assert.False(t, mr.Exists(movieCacheKey(550)))

	// A read that starts after the write is cached
	_, err := repo.GetMovieByTMDBID(ctx, 550)
	require.NoError(t, err)
	assert.True(t, mr.Exists(movieCacheKey(550)))
}

func TestReviewWrite_InvalidatesMovieCache(t *testing.T) {
	d, mr := newTestDataWithRedis(t)
	logger := log.DefaultLogger
	ctx := context.Background()

	catalog := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected catalog request %s", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})
	movieRepo := NewMovieRepo(d, logger)
	movies := biz.NewMovieUseCase(movieRepo, catalog, &conf.Catalog{}, logger)
	reviews := biz.NewReviewUseCase(movies, movieRepo, NewReviewRepo(d, logger), NewTransaction(d), logger)

	movie := seedMovie(t, d, 550)
	user := seedUser(t, d, "alice")

	before, err := movies.GetMovie(ctx, 550)
	require.NoError(t, err)
	assert.Zero(t, before.RatingCount)
	require.True(t, mr.Exists(movieCacheKey(550)))

	_, err = reviews.Submit(ctx, user.ID, 550, 8, "great")
	require.NoError(t, err)
	assert.False(t, mr.Exists(movieCacheKey(550)))

	after, err := movies.GetMovie(ctx, 550)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.RatingCount)
	assert.InDelta(t, 8.0, after.RatingAverage, 1e-9)

	score, err := mr.ZScore(rankTopKey, movie.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, score, 1e-9)
}

func TestMovieRepo_TopRatedFollowsRankings(t *testing.T) {
	d, _ := newTestDataWithRedis(t)
	repo := NewMovieRepo(d, log.DefaultLogger)
	ctx := context.Background()

	a := seedMovie(t, d, 1)
	b := seedMovie(t, d, 2)
	c := seedMovie(t, d, 3)
	for _, m := range []*biz.Movie{a, b, c} {
		require.NoError(t, d.db.Model(&Movie{}).Where("id = ?", m.ID).
			Updates(map[string]any{"rating_average": 5.0, "rating_count": 1}).Error)
	}

	repo.PublishAggregate(ctx, a, &biz.RatingAggregate{Average: 5, Count: 1})
	repo.PublishAggregate(ctx, b, &biz.RatingAggregate{Average: 9, Count: 1})
	repo.PublishAggregate(ctx, c, &biz.RatingAggregate{Average: 7, Count: 1})

	movies, err := repo.TopRated(ctx, 2)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, b.ID, movies[0].ID)
	assert.Equal(t, c.ID, movies[1].ID)

	// A movie whose last review was removed leaves the ranking
	repo.PublishAggregate(ctx, b, &biz.RatingAggregate{})
	movies, err = repo.TopRated(ctx, 10)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, c.ID, movies[0].ID)
	assert.Equal(t, a.ID, movies[1].ID)
}

func TestCatalogClient_ListingCache(t *testing.T) {
	d, mr := newTestDataWithRedis(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":550,"title":"Fight Club"}]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewCatalogClient(&conf.Catalog{
		BaseUrl:  srv.URL,
		ApiKey:   "key",
		Timeout:  conf.NewDuration(time.Second),
		CacheTtl: conf.NewDuration(time.Minute),
	}, d, log.DefaultLogger)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		movies, err := c.Popular(ctx)
		require.NoError(t, err)
		require.Len(t, movies, 1)
		assert.Equal(t, "Fight Club", movies[0].Title)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.NotEmpty(t, mr.Keys())

	mr.FastForward(2 * time.Minute)
	_, err := c.Popular(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
