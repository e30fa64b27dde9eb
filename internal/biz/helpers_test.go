package biz

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cinescope/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) bool { return hash == "hashed:"+password }

// stubTokens issues "token:<user id>" and parses it back.
type stubTokens struct{}

func (stubTokens) Issue(claims *UserClaims) (string, error) {
	return "token:" + claims.UserID, nil
}

func (stubTokens) Parse(token string) (*UserClaims, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok || id == "" {
		return nil, errors.New("malformed token")
	}
	return &UserClaims{UserID: id}, nil
}

type fixture struct {
	store     *store
	catalog   *mockCatalog
	movies    *MovieUseCase
	reviews   *ReviewUseCase
	watchlist *WatchlistUseCase
	auth      *AuthUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newStore()
	catalog := &mockCatalog{}
	movies := NewMovieUseCase(s, catalog, &conf.Catalog{}, log.DefaultLogger)
	auth, err := NewAuthUseCase(s, plainHasher{}, stubTokens{}, log.DefaultLogger)
	require.NoError(t, err)
	return &fixture{
		store:     s,
		catalog:   catalog,
		movies:    movies,
		reviews:   NewReviewUseCase(movies, s, s, s, log.DefaultLogger),
		watchlist: NewWatchlistUseCase(movies, watchlistStore{s}, log.DefaultLogger),
		auth:      auth,
	}
}

func catalogMovie(tmdbID int64, title string) *CatalogMovie {
	released := time.Date(1999, 10, 15, 0, 0, 0, 0, time.UTC)
	return &CatalogMovie{
		TMDBID:      tmdbID,
		Title:       title,
		Overview:    "overview",
		ReleaseDate: &released,
		Runtime:     139,
		Genres:      []Genre{{ID: 18, Name: "Drama"}},
		VoteAverage: 8.4,
	}
}
