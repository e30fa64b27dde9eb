package service

import (
	"context"
	"net/http"
	"time"

	"cinescope/internal/biz"
)

// CreateReviewRequest submits the caller's review of a movie.
type CreateReviewRequest struct {
	MovieID int64  `json:"movieId" validate:"required,gt=0"`
	Rating  int32  `json:"rating" validate:"required,min=1,max=10"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateMovieReviewRequest rewrites the caller's review of a movie.
type UpdateMovieReviewRequest struct {
	MovieID int64  `json:"movieId" validate:"gt=0"`
	Rating  int32  `json:"rating" validate:"required,min=1,max=10"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateReviewRequest rewrites a review by id.
type UpdateReviewRequest struct {
	ReviewID string `json:"reviewId" validate:"required"`
	Rating   int32  `json:"rating" validate:"required,min=1,max=10"`
	Comment  string `json:"comment" validate:"max=2000"`
}

// DeleteReviewRequest removes a review by id.
type DeleteReviewRequest struct {
	ReviewID string `json:"reviewId" validate:"required"`
}

// ListMovieReviewsRequest addresses a movie's reviews.
type ListMovieReviewsRequest struct {
	MovieID int64 `json:"movieId" validate:"gt=0"`
}

// ReviewAuthorReply is the public author of a review.
type ReviewAuthorReply struct {
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profilePicture"`
}

// ReviewMovieReply is the movie a review belongs to.
type ReviewMovieReply struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"posterPath"`
	ReleaseDate *string `json:"releaseDate"`
}

// ReviewReply is one review.
type ReviewReply struct {
	ID        string             `json:"id"`
	MovieID   int64              `json:"movieId"`
	UserID    string             `json:"userId"`
	Rating    int32              `json:"rating"`
	Comment   string             `json:"comment"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	User      *ReviewAuthorReply `json:"user,omitempty"`
	Movie     *ReviewMovieReply  `json:"movie,omitempty"`
}

// SingleReviewReply wraps one review.
type SingleReviewReply struct {
	Review *ReviewReply `json:"review"`

	status int
}

// HTTPStatus reports 201 for a new review.
func (r *SingleReviewReply) HTTPStatus() int { return r.status }

// ReviewListReply wraps a list of reviews.
type ReviewListReply struct {
	Reviews []*ReviewReply `json:"reviews"`
}

// ReviewService exposes the review ledger.
type ReviewService struct {
	uc *biz.ReviewUseCase
}

// NewReviewService creates a new ReviewService
func NewReviewService(uc *biz.ReviewUseCase) *ReviewService {
	return &ReviewService{uc: uc}
}

// CreateReview implements review submission
func (s *ReviewService) CreateReview(ctx context.Context, req *CreateReviewRequest) (*SingleReviewReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.uc.Submit(ctx, claims.UserID, req.MovieID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	return &SingleReviewReply{Review: reviewToReply(review), status: http.StatusCreated}, nil
}

// UpdateMovieReview implements updating the caller's review of a movie
func (s *ReviewService) UpdateMovieReview(ctx context.Context, req *UpdateMovieReviewRequest) (*SingleReviewReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.uc.Update(ctx, claims.UserID, req.MovieID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	return &SingleReviewReply{Review: reviewToReply(review), status: http.StatusOK}, nil
}

// UpdateReview implements updating a review by id
func (s *ReviewService) UpdateReview(ctx context.Context, req *UpdateReviewRequest) (*SingleReviewReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.uc.UpdateByID(ctx, claims.UserID, req.ReviewID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	return &SingleReviewReply{Review: reviewToReply(review), status: http.StatusOK}, nil
}

// DeleteReview implements review deletion
func (s *ReviewService) DeleteReview(ctx context.Context, req *DeleteReviewRequest) (*MessageReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uc.Delete(ctx, req.ReviewID, claims.UserID); err != nil {
		return nil, err
	}
	return &MessageReply{Message: "Review deleted successfully"}, nil
}

// ListMovieReviews lists a movie's reviews
func (s *ReviewService) ListMovieReviews(ctx context.Context, req *ListMovieReviewsRequest) (*ReviewListReply, error) {
	reviews, err := s.uc.ListForMovie(ctx, req.MovieID)
	if err != nil {
		return nil, err
	}
	return reviewsToReply(reviews), nil
}

// ListUserReviews lists the caller's reviews
func (s *ReviewService) ListUserReviews(ctx context.Context, _ *EmptyRequest) (*ReviewListReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.uc.ListForUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return reviewsToReply(reviews), nil
}

func reviewsToReply(reviews []*biz.Review) *ReviewListReply {
	reply := &ReviewListReply{Reviews: make([]*ReviewReply, 0, len(reviews))}
	for _, r := range reviews {
		reply.Reviews = append(reply.Reviews, reviewToReply(r))
	}
	return reply
}

func reviewToReply(r *biz.Review) *ReviewReply {
	reply := &ReviewReply{
		ID:        r.ID,
		MovieID:   r.MovieTMDBID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Author != nil {
		reply.User = &ReviewAuthorReply{
			Username:       r.Author.Username,
			ProfilePicture: r.Author.AvatarURL,
		}
	}
	if r.Movie != nil {
		reply.Movie = &ReviewMovieReply{
			ID:          r.Movie.TMDBID,
			Title:       r.Movie.Title,
			PosterPath:  r.Movie.PosterURL,
			ReleaseDate: formatDate(r.Movie.ReleaseDate),
		}
	}
	return reply
}
