package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// WatchlistUseCase is the watchlist set. Add and Remove are idempotent:
// adding a present movie returns the existing entry and removing an absent
// one succeeds.
type WatchlistUseCase struct {
	movies *MovieUseCase
	repo   WatchlistRepo
	log    *log.Helper
}

// NewWatchlistUseCase creates a new WatchlistUseCase instance
func NewWatchlistUseCase(movies *MovieUseCase, repo WatchlistRepo, logger log.Logger) *WatchlistUseCase {
	return &WatchlistUseCase{
		movies: movies,
		repo:   repo,
		log:    log.NewHelper(logger),
	}
}

// Add puts a movie on the user's watchlist. created is false when the movie
// was already there.
func (uc *WatchlistUseCase) Add(ctx context.Context, userID string, tmdbID int64) (*WatchlistEntry, bool, error) {
	movie, err := uc.movies.ResolveMovie(ctx, tmdbID)
	if err != nil {
		return nil, false, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate watchlist entry ID: %w", err)
	}

	entry, created, err := uc.repo.AddEntry(ctx, &WatchlistEntry{
		ID:      id.String(),
		UserID:  userID,
		MovieID: movie.ID,
		AddedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	entry.Movie = movie

	if created {
		uc.log.WithContext(ctx).Infof("user %s added movie %d to watchlist", userID, tmdbID)
	}
	return entry, created, nil
}

// Remove takes a movie off the user's watchlist
func (uc *WatchlistUseCase) Remove(ctx context.Context, userID string, tmdbID int64) error {
	movie, err := uc.movies.LookupMovie(ctx, tmdbID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return nil
		}
		return err
	}

	removed, err := uc.repo.RemoveEntry(ctx, userID, movie.ID)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}
	if removed {
		uc.log.WithContext(ctx).Infof("user %s removed movie %d from watchlist", userID, tmdbID)
	}
	return nil
}

// Toggle adds the movie when absent and removes it when present. It reports
// membership after the call.
func (uc *WatchlistUseCase) Toggle(ctx context.Context, userID string, tmdbID int64) (bool, error) {
	member, err := uc.IsMember(ctx, userID, tmdbID)
	if err != nil {
		return false, err
	}
	if member {
		return false, uc.Remove(ctx, userID, tmdbID)
	}
	if _, _, err := uc.Add(ctx, userID, tmdbID); err != nil {
		return false, err
	}
	return true, nil
}

// IsMember reports whether the movie is on the user's watchlist
func (uc *WatchlistUseCase) IsMember(ctx context.Context, userID string, tmdbID int64) (bool, error) {
	movie, err := uc.movies.LookupMovie(ctx, tmdbID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return false, nil
		}
		return false, err
	}
	return uc.repo.Exists(ctx, userID, movie.ID)
}

// List returns the user's watchlist, most recently added first
func (uc *WatchlistUseCase) List(ctx context.Context, userID string) ([]*WatchlistEntry, error) {
	return uc.repo.ListByUser(ctx, userID)
}
