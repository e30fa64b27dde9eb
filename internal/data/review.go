package data

import (
	"context"
	"errors"
	"fmt"

	"cinescope/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepo struct {
	data *Data
	log  *log.Helper
}

// NewReviewRepo creates a new review repository
func NewReviewRepo(data *Data, logger log.Logger) biz.ReviewRepo {
	return &reviewRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reviewRepo) CreateReview(ctx context.Context, review *biz.Review) error {
	dbReview := &Review{
		ID:        review.ID,
		UserID:    review.UserID,
		MovieID:   review.MovieID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}

	err := r.data.DB(ctx).Omit(clause.Associations).Create(dbReview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return biz.ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepo) GetReview(ctx context.Context, id string) (*biz.Review, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *reviewRepo) GetReviewByPair(ctx context.Context, userID, movieID string) (*biz.Review, error) {
	return r.first(ctx, "user_id = ? AND movie_id = ?", userID, movieID)
}

func (r *reviewRepo) UpdateReview(ctx context.Context, review *biz.Review) error {
	result := r.data.DB(ctx).Model(&Review{}).Where("id = ?", review.ID).Updates(map[string]any{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"updated_at": review.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepo) DeleteReview(ctx context.Context, id string) error {
	result := r.data.DB(ctx).Where("id = ?", id).Delete(&Review{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepo) LockMovie(ctx context.Context, movieID string) error {
	var m Movie
	err := r.data.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", movieID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biz.ErrMovieNotFound
		}
		return fmt.Errorf("failed to lock movie: %w", err)
	}
	return nil
}

func (r *reviewRepo) RecomputeAggregate(ctx context.Context, movieID string) (*biz.RatingAggregate, error) {
	var result RatingAggregate
	err := r.data.DB(ctx).
		Model(&Review{}).
		Select("COALESCE(AVG(CAST(rating AS DOUBLE PRECISION)), 0) AS average, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	err = r.data.DB(ctx).Model(&Movie{}).Where("id = ?", movieID).Updates(map[string]any{
		"rating_average": result.Average,
		"rating_count":   result.Count,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store rating aggregate: %w", err)
	}

	return &biz.RatingAggregate{
		Average: result.Average,
		Count:   result.Count,
	}, nil
}

func (r *reviewRepo) ListByMovie(ctx context.Context, movieID string) ([]*biz.Review, error) {
	var rows []Review
	err := r.data.DB(ctx).
		Preload("User").
		Where("movie_id = ?", movieID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movie reviews: %w", err)
	}

	reviews := make([]*biz.Review, 0, len(rows))
	for i := range rows {
		review := reviewToBiz(&rows[i])
		review.Author = &biz.ReviewAuthor{
			Username:  rows[i].User.Username,
			AvatarURL: rows[i].User.AvatarURL,
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]*biz.Review, error) {
	var rows []Review
	err := r.data.DB(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}

	reviews := make([]*biz.Review, 0, len(rows))
	for i := range rows {
		review := reviewToBiz(&rows[i])
		review.MovieTMDBID = rows[i].Movie.TMDBID
		review.Movie = &biz.MovieRef{
			TMDBID:      rows[i].Movie.TMDBID,
			Title:       rows[i].Movie.Title,
			PosterURL:   rows[i].Movie.PosterURL,
			ReleaseDate: rows[i].Movie.ReleaseDate,
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func (r *reviewRepo) first(ctx context.Context, query string, args ...any) (*biz.Review, error) {
	var row Review
	if err := r.data.DB(ctx).Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return reviewToBiz(&row), nil
}

func reviewToBiz(r *Review) *biz.Review {
	return &biz.Review{
		ID:        r.ID,
		UserID:    r.UserID,
		MovieID:   r.MovieID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
