package data

import (
	"context"
	"fmt"

	"cinescope/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm/clause"
)

type watchlistRepo struct {
	data *Data
	log  *log.Helper
}

// NewWatchlistRepo creates a new watchlist repository
func NewWatchlistRepo(data *Data, logger log.Logger) biz.WatchlistRepo {
	return &watchlistRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *watchlistRepo) AddEntry(ctx context.Context, entry *biz.WatchlistEntry) (*biz.WatchlistEntry, bool, error) {
	dbEntry := &WatchlistEntry{
		ID:      entry.ID,
		UserID:  entry.UserID,
		MovieID: entry.MovieID,
		AddedAt: entry.AddedAt,
	}

	// The unique pair index turns a duplicate add into a no-op
	result := r.data.DB(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoNothing: true,
	}).Create(dbEntry)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to insert watchlist entry: %w", result.Error)
	}
	created := result.RowsAffected > 0

	var stored WatchlistEntry
	err := r.data.DB(ctx).
		Where("user_id = ? AND movie_id = ?", entry.UserID, entry.MovieID).
		First(&stored).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to read watchlist entry: %w", err)
	}
	return watchlistToBiz(&stored), created, nil
}

func (r *watchlistRepo) RemoveEntry(ctx context.Context, userID, movieID string) (bool, error) {
	result := r.data.DB(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&WatchlistEntry{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete watchlist entry: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *watchlistRepo) Exists(ctx context.Context, userID, movieID string) (bool, error) {
	var count int64
	err := r.data.DB(ctx).Model(&WatchlistEntry{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist entry: %w", err)
	}
	return count > 0, nil
}

func (r *watchlistRepo) ListByUser(ctx context.Context, userID string) ([]*biz.WatchlistEntry, error) {
	var rows []WatchlistEntry
	err := r.data.DB(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	entries := make([]*biz.WatchlistEntry, 0, len(rows))
	for i := range rows {
		entry := watchlistToBiz(&rows[i])
		entry.Movie = movieToBiz(&rows[i].Movie)
		entries = append(entries, entry)
	}
	return entries, nil
}

func watchlistToBiz(e *WatchlistEntry) *biz.WatchlistEntry {
	return &biz.WatchlistEntry{
		ID:      e.ID,
		UserID:  e.UserID,
		MovieID: e.MovieID,
		AddedAt: e.AddedAt,
	}
}
