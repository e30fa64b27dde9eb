package service

import (
	"context"
	"time"

	"cinescope/internal/biz"
)

// WatchlistMovieRequest addresses one movie on the caller's watchlist.
type WatchlistMovieRequest struct {
	MovieID int64 `json:"movieId" validate:"gt=0"`
}

// WatchlistMovieReply is the movie projection of a watchlist entry.
type WatchlistMovieReply struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Overview      string        `json:"overview"`
	PosterPath    *string       `json:"posterPath"`
	ReleaseDate   *string       `json:"releaseDate"`
	Genres        []*GenreReply `json:"genres"`
	AverageRating float64       `json:"averageRating"`
	RatingCount   int64         `json:"ratingCount"`
}

// WatchlistItemReply is one watchlist entry.
type WatchlistItemReply struct {
	ID      string               `json:"id"`
	MovieID int64                `json:"movieId"`
	AddedAt time.Time            `json:"addedAt"`
	Movie   *WatchlistMovieReply `json:"movie"`
}

// AddWatchlistReply wraps the stored entry.
type AddWatchlistReply struct {
	WatchlistItem *WatchlistItemReply `json:"watchlistItem"`

	status int
}

// HTTPStatus reports 201 when the entry was created and 200 when it already existed.
func (r *AddWatchlistReply) HTTPStatus() int { return r.status }

// WatchlistReply is the caller's whole watchlist.
type WatchlistReply struct {
	Watchlist []*WatchlistItemReply `json:"watchlist"`
}

// MembershipReply reports whether a movie is on the watchlist.
type MembershipReply struct {
	IsInWatchlist bool `json:"isInWatchlist"`
}

// WatchlistService exposes the watchlist set.
type WatchlistService struct {
	uc *biz.WatchlistUseCase
}

// NewWatchlistService creates a new WatchlistService
func NewWatchlistService(uc *biz.WatchlistUseCase) *WatchlistService {
	return &WatchlistService{uc: uc}
}

// AddToWatchlist implements idempotent watchlist add
func (s *WatchlistService) AddToWatchlist(ctx context.Context, req *WatchlistMovieRequest) (*AddWatchlistReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	entry, created, err := s.uc.Add(ctx, claims.UserID, req.MovieID)
	if err != nil {
		return nil, err
	}
	return &AddWatchlistReply{WatchlistItem: entryToReply(entry), status: status(created)}, nil
}

// RemoveFromWatchlist implements idempotent watchlist removal
func (s *WatchlistService) RemoveFromWatchlist(ctx context.Context, req *WatchlistMovieRequest) (*MessageReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uc.Remove(ctx, claims.UserID, req.MovieID); err != nil {
		return nil, err
	}
	return &MessageReply{Message: "Movie removed from watchlist"}, nil
}

// ToggleWatchlist adds or removes the movie
func (s *WatchlistService) ToggleWatchlist(ctx context.Context, req *WatchlistMovieRequest) (*MembershipReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	member, err := s.uc.Toggle(ctx, claims.UserID, req.MovieID)
	if err != nil {
		return nil, err
	}
	return &MembershipReply{IsInWatchlist: member}, nil
}

// CheckWatchlist reports membership without side effects
func (s *WatchlistService) CheckWatchlist(ctx context.Context, req *WatchlistMovieRequest) (*MembershipReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	member, err := s.uc.IsMember(ctx, claims.UserID, req.MovieID)
	if err != nil {
		return nil, err
	}
	return &MembershipReply{IsInWatchlist: member}, nil
}

// ListWatchlist returns the caller's watchlist
func (s *WatchlistService) ListWatchlist(ctx context.Context, _ *EmptyRequest) (*WatchlistReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.uc.List(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	reply := &WatchlistReply{Watchlist: make([]*WatchlistItemReply, 0, len(entries))}
	for _, e := range entries {
		reply.Watchlist = append(reply.Watchlist, entryToReply(e))
	}
	return reply, nil
}

func entryToReply(e *biz.WatchlistEntry) *WatchlistItemReply {
	reply := &WatchlistItemReply{
		ID:      e.ID,
		AddedAt: e.AddedAt,
	}
	if m := e.Movie; m != nil {
		reply.MovieID = m.TMDBID
		reply.Movie = &WatchlistMovieReply{
			ID:            m.TMDBID,
			Title:         m.Title,
			Overview:      m.Overview,
			PosterPath:    m.PosterURL,
			ReleaseDate:   formatDate(m.ReleaseDate),
			Genres:        genresToReply(m.Genres),
			AverageRating: m.RatingAverage,
			RatingCount:   m.RatingCount,
		}
	}
	return reply
}
