package service

import (
	"context"

	"cinescope/internal/biz"
)

// ListMoviesRequest carries the movie listing filters from the query string.
type ListMoviesRequest struct {
	Page   int32    `json:"page" validate:"gte=0"`
	Limit  int32    `json:"limit" validate:"gte=0,lte=100"`
	Genre  *int64   `json:"genre" validate:"omitempty,gt=0"`
	Year   *int32   `json:"year"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=0,lte=10"`
	SortBy string   `json:"sortBy"`
	Search string   `json:"search"`
}

// SearchMoviesRequest is a catalog text search.
type SearchMoviesRequest struct {
	Q    string `json:"q"`
	Page int32  `json:"page" validate:"gte=0"`
}

// GetMovieRequest addresses a movie by catalog id.
type GetMovieRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// TopRatedRequest limits the top rated listing.
type TopRatedRequest struct {
	Limit int `json:"limit" validate:"gte=0"`
}

// MovieService exposes the catalog mirror.
type MovieService struct {
	uc *biz.MovieUseCase
}

// NewMovieService creates a new MovieService
func NewMovieService(uc *biz.MovieUseCase) *MovieService {
	return &MovieService{uc: uc}
}

// ListMovies implements the filtered movie listing
func (s *MovieService) ListMovies(ctx context.Context, req *ListMoviesRequest) (*MoviePageReply, error) {
	page, err := s.uc.ListMovies(ctx, &biz.MovieFilter{
		Page:        req.Page,
		Limit:       req.Limit,
		Genre:       req.Genre,
		Year:        req.Year,
		MinRating:   req.Rating,
		SortBy:      req.SortBy,
		SearchQuery: req.Search,
	})
	if err != nil {
		return nil, err
	}
	return pageToReply(page), nil
}

// SearchMovies implements catalog text search
func (s *MovieService) SearchMovies(ctx context.Context, req *SearchMoviesRequest) (*MoviePageReply, error) {
	page, err := s.uc.Search(ctx, req.Q, req.Page)
	if err != nil {
		return nil, err
	}
	return pageToReply(page), nil
}

// ListFeatured implements the featured rail
func (s *MovieService) ListFeatured(ctx context.Context, _ *EmptyRequest) ([]*MovieSummaryReply, error) {
	movies, err := s.uc.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	return summariesToReply(movies), nil
}

// ListTrending implements the trending rail
func (s *MovieService) ListTrending(ctx context.Context, _ *EmptyRequest) ([]*MovieSummaryReply, error) {
	movies, err := s.uc.ListTrending(ctx)
	if err != nil {
		return nil, err
	}
	return summariesToReply(movies), nil
}

// ListGenres implements the genre list
func (s *MovieService) ListGenres(ctx context.Context, _ *EmptyRequest) ([]*GenreReply, error) {
	genres, err := s.uc.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return genresToReply(genres), nil
}

// TopRated lists mirrored movies by local rating
func (s *MovieService) TopRated(ctx context.Context, req *TopRatedRequest) ([]*MovieReply, error) {
	movies, err := s.uc.TopRated(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	reply := make([]*MovieReply, 0, len(movies))
	for _, m := range movies {
		reply = append(reply, movieToReply(m))
	}
	return reply, nil
}

// GetMovie implements movie details
func (s *MovieService) GetMovie(ctx context.Context, req *GetMovieRequest) (*MovieReply, error) {
	movie, err := s.uc.GetMovie(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return movieToReply(movie), nil
}

// RefreshMovie resyncs a mirrored movie from the catalog. The route is
// restricted to admins by the server middleware.
func (s *MovieService) RefreshMovie(ctx context.Context, req *GetMovieRequest) (*MovieReply, error) {
	movie, err := s.uc.RefreshMovie(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return movieToReply(movie), nil
}
