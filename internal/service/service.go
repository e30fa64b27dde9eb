package service

import (
	"context"
	"net/http"
	"time"

	"cinescope/internal/biz"

	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewAuthService,
	NewMovieService,
	NewReviewService,
	NewWatchlistService,
)

const dateLayout = "2006-01-02"

// EmptyRequest is bound by operations that take no input.
type EmptyRequest struct{}

// MessageReply carries a human readable confirmation.
type MessageReply struct {
	Message string `json:"message"`
}

// UserReply is the public projection of an account.
type UserReply struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Role           biz.Role  `json:"role"`
	JoinDate       time.Time `json:"joinDate"`
	ProfilePicture *string   `json:"profilePicture"`
}

// GenreReply is one catalog genre.
type GenreReply struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieSummaryReply is one catalog listing item.
type MovieSummaryReply struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// MovieReply is the detail projection of a mirrored movie.
type MovieReply struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Overview      string        `json:"overview"`
	PosterPath    *string       `json:"poster_path"`
	BackdropPath  *string       `json:"backdrop_path"`
	ReleaseDate   *string       `json:"release_date"`
	Runtime       int32         `json:"runtime"`
	Genres        []*GenreReply `json:"genres"`
	VoteAverage   float64       `json:"vote_average"`
	AverageRating float64       `json:"averageRating"`
	RatingCount   int64         `json:"ratingCount"`
}

// PaginationReply describes the page of a listing.
type PaginationReply struct {
	Page       int32 `json:"page"`
	Limit      int32 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int32 `json:"totalPages"`
}

// MoviePageReply is a paginated catalog listing.
type MoviePageReply struct {
	Data       []*MovieSummaryReply `json:"data"`
	Pagination *PaginationReply     `json:"pagination"`
}

func currentUser(ctx context.Context) (*biz.UserClaims, error) {
	claims, ok := biz.FromContext(ctx)
	if !ok {
		return nil, biz.ErrUnauthorized
	}
	return claims, nil
}

// status picks the reply status for operations that may create a resource.
func status(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func userToReply(u *biz.User) *UserReply {
	return &UserReply{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Role:           u.Role,
		JoinDate:       u.JoinedAt,
		ProfilePicture: u.AvatarURL,
	}
}

func genresToReply(genres []biz.Genre) []*GenreReply {
	out := make([]*GenreReply, 0, len(genres))
	for _, g := range genres {
		out = append(out, &GenreReply{ID: g.ID, Name: g.Name})
	}
	return out
}

func movieToReply(m *biz.Movie) *MovieReply {
	return &MovieReply{
		ID:            m.TMDBID,
		Title:         m.Title,
		Overview:      m.Overview,
		PosterPath:    m.PosterURL,
		BackdropPath:  m.BackdropURL,
		ReleaseDate:   formatDate(m.ReleaseDate),
		Runtime:       m.Runtime,
		Genres:        genresToReply(m.Genres),
		VoteAverage:   m.VoteAverage,
		AverageRating: m.RatingAverage,
		RatingCount:   m.RatingCount,
	}
}

func summariesToReply(items []*biz.MovieSummary) []*MovieSummaryReply {
	out := make([]*MovieSummaryReply, 0, len(items))
	for _, m := range items {
		genreIDs := m.GenreIDs
		if genreIDs == nil {
			genreIDs = []int64{}
		}
		out = append(out, &MovieSummaryReply{
			ID:          m.TMDBID,
			Title:       m.Title,
			Overview:    m.Overview,
			PosterPath:  m.PosterURL,
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
			GenreIDs:    genreIDs,
		})
	}
	return out
}

func pageToReply(p *biz.MoviePage) *MoviePageReply {
	return &MoviePageReply{
		Data: summariesToReply(p.Items),
		Pagination: &PaginationReply{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}
