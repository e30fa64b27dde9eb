package biz

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Rating bounds. One scale is used for submission, storage and display.
const (
	MinRating        = 1
	MaxRating        = 10
	MaxCommentLength = 2000
)

// ReviewUseCase is the review ledger. Every write recomputes the movie's
// aggregate rating inside the same transaction.
type ReviewUseCase struct {
	movies    *MovieUseCase
	movieRepo MovieRepo
	repo      ReviewRepo
	tx        Transaction
	log       *log.Helper
}

// NewReviewUseCase creates a new ReviewUseCase instance
func NewReviewUseCase(movies *MovieUseCase, movieRepo MovieRepo, repo ReviewRepo, tx Transaction, logger log.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		movies:    movies,
		movieRepo: movieRepo,
		repo:      repo,
		tx:        tx,
		log:       log.NewHelper(logger),
	}
}

// Submit creates the caller's review for a movie. It never overwrites an
// existing review.
func (uc *ReviewUseCase) Submit(ctx context.Context, userID string, tmdbID int64, rating int32, comment string) (*Review, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, err
	}

	movie, err := uc.movies.ResolveMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate review ID: %w", err)
	}
	now := time.Now().UTC()
	review := &Review{
		ID:        id.String(),
		UserID:    userID,
		MovieID:   movie.ID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,

		MovieTMDBID: movie.TMDBID,
	}

	err = uc.writeAndRecompute(ctx, movie, func(ctx context.Context) error {
		if _, err := uc.repo.GetReviewByPair(ctx, userID, movie.ID); err == nil {
			return ErrReviewExists
		} else if !errors.Is(err, ErrReviewNotFound) {
			return err
		}
		return uc.repo.CreateReview(ctx, review)
	})
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("user %s reviewed movie %d with rating %d", userID, tmdbID, rating)
	return review, nil
}

// Update rewrites the caller's review of a movie
func (uc *ReviewUseCase) Update(ctx context.Context, userID string, tmdbID int64, rating int32, comment string) (*Review, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, err
	}

	movie, err := uc.movies.LookupMovie(ctx, tmdbID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	var review *Review
	err = uc.writeAndRecompute(ctx, movie, func(ctx context.Context) error {
		existing, err := uc.repo.GetReviewByPair(ctx, userID, movie.ID)
		if err != nil {
			return err
		}
		review = existing
		review.MovieTMDBID = movie.TMDBID
		review.Rating = rating
		review.Comment = comment
		review.UpdatedAt = time.Now().UTC()
		return uc.repo.UpdateReview(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateByID rewrites a review identified by id, provided the caller owns it
func (uc *ReviewUseCase) UpdateByID(ctx context.Context, userID, reviewID string, rating int32, comment string) (*Review, error) {
	comment, err := validateReview(rating, comment)
	if err != nil {
		return nil, err
	}

	review, movie, err := uc.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	review.MovieTMDBID = movie.TMDBID
	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()
	err = uc.writeAndRecompute(ctx, movie, func(ctx context.Context) error {
		return uc.repo.UpdateReview(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review owned by userID
func (uc *ReviewUseCase) Delete(ctx context.Context, reviewID, userID string) error {
	_, movie, err := uc.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return err
	}

	err = uc.writeAndRecompute(ctx, movie, func(ctx context.Context) error {
		return uc.repo.DeleteReview(ctx, reviewID)
	})
	if err != nil {
		return err
	}

	uc.log.WithContext(ctx).Infof("user %s deleted review %s", userID, reviewID)
	return nil
}

// ListForMovie lists a movie's reviews, newest first
func (uc *ReviewUseCase) ListForMovie(ctx context.Context, tmdbID int64) ([]*Review, error) {
	movie, err := uc.movies.LookupMovie(ctx, tmdbID)
	if err != nil {
		// Nobody can have reviewed a movie that was never mirrored
		if errors.Is(err, ErrMovieNotFound) {
			return []*Review{}, nil
		}
		return nil, err
	}

	reviews, err := uc.repo.ListByMovie(ctx, movie.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		r.MovieTMDBID = movie.TMDBID
	}
	return reviews, nil
}

// ListForUser lists a user's reviews with a movie projection, newest first
func (uc *ReviewUseCase) ListForUser(ctx context.Context, userID string) ([]*Review, error) {
	return uc.repo.ListByUser(ctx, userID)
}

func (uc *ReviewUseCase) ownedReview(ctx context.Context, userID, reviewID string) (*Review, *Movie, error) {
	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, nil, ErrReviewNotFound
	}

	review, err := uc.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}
	if review.UserID != userID {
		return nil, nil, ErrReviewForbidden
	}

	movie, err := uc.movieRepo.GetMovie(ctx, review.MovieID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get reviewed movie: %w", err)
	}
	return review, movie, nil
}

// writeAndRecompute runs write and the aggregate recomputation in one
// transaction. The movie row is locked before write so concurrent reviews of
// the same movie serialize on it.
func (uc *ReviewUseCase) writeAndRecompute(ctx context.Context, movie *Movie, write func(ctx context.Context) error) error {
	var agg *RatingAggregate
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.LockMovie(ctx, movie.ID); err != nil {
			return err
		}
		if err := write(ctx); err != nil {
			return err
		}
		var err error
		agg, err = uc.repo.RecomputeAggregate(ctx, movie.ID)
		return err
	})
	if err != nil {
		return err
	}

	movie.RatingAverage = agg.Average
	movie.RatingCount = agg.Count
	uc.movieRepo.PublishAggregate(ctx, movie, agg)
	return nil
}

func validateReview(rating int32, comment string) (string, error) {
	if rating < MinRating || rating > MaxRating {
		return "", ValidationError("rating must be between %d and %d", MinRating, MaxRating)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return "", ValidationError("comment must not exceed %d characters", MaxCommentLength)
	}
	return comment, nil
}
