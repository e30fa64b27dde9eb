package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cinescope/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	movieCacheTTL = 15 * time.Minute
	movieGenTTL   = 24 * time.Hour

	rankTopKey     = "rank:movies:top"
	rankPopularKey = "rank:movies:popular"
)

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

var errStaleRead = errors.New("movie changed while it was read")

func movieCacheKey(tmdbID int64) string {
	return fmt.Sprintf("movie:%d", tmdbID)
}

func movieGenKey(tmdbID int64) string {
	return fmt.Sprintf("movie:%d:gen", tmdbID)
}

func (r *movieRepo) InsertOrGet(ctx context.Context, movie *biz.Movie) (*biz.Movie, error) {
	dbMovie := r.bizToModel(movie)

	// A concurrent writer may insert the same tmdb_id first; DO NOTHING lets
	// the loser fall through to reading the winner's row.
	result := r.data.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tmdb_id"}},
		DoNothing: true,
	}).Create(dbMovie)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to insert movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.log.Debugf("movie %d already mirrored, reading existing row", movie.TMDBID)
	}

	var stored Movie
	if err := r.data.DB(ctx).Where("tmdb_id = ?", movie.TMDBID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to read mirrored movie: %w", err)
	}
	return r.modelToBiz(&stored), nil
}

func (r *movieRepo) GetMovie(ctx context.Context, id string) (*biz.Movie, error) {
	var dbMovie Movie
	if err := r.data.DB(ctx).Where("id = ?", id).First(&dbMovie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return r.modelToBiz(&dbMovie), nil
}

func (r *movieRepo) GetMovieByTMDBID(ctx context.Context, tmdbID int64) (*biz.Movie, error) {
	// Try cache first if Redis is available
	var gen string
	if r.data.rdb != nil {
		cached, err := r.data.rdb.Get(ctx, movieCacheKey(tmdbID)).Result()
		if err == nil {
			var movie biz.Movie
			if err := json.Unmarshal([]byte(cached), &movie); err == nil {
				r.log.Debugf("cache hit for movie: %d", tmdbID)
				return &movie, nil
			}
		}
		gen, _ = r.data.rdb.Get(ctx, movieGenKey(tmdbID)).Result()
	}

	// Query from database
	var dbMovie Movie
	if err := r.data.DB(ctx).Where("tmdb_id = ?", tmdbID).First(&dbMovie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	movie := r.modelToBiz(&dbMovie)
	if r.data.rdb != nil {
		r.cacheMovie(ctx, movie, gen)
	}
	return movie, nil
}

// cacheMovie stores a row read while the movie's generation was gen. A write
// that invalidated the movie in the meantime bumps the generation, and the
// row is not cached.
func (r *movieRepo) cacheMovie(ctx context.Context, movie *biz.Movie, gen string) {
	payload, err := json.Marshal(movie)
	if err != nil {
		return
	}

	genKey := movieGenKey(movie.TMDBID)
	err = r.data.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, movieCacheKey(movie.TMDBID), payload, movieCacheTTL)
			return nil
		})
		return err
	}, genKey)
	if err != nil {
		r.log.Debugf("movie %d not cached: %v", movie.TMDBID, err)
	}
}

func (r *movieRepo) UpdateMetadata(ctx context.Context, movie *biz.Movie) error {
	m := r.bizToModel(movie)

	// Aggregate columns are deliberately absent from the select list
	result := r.data.DB(ctx).Model(&Movie{}).Where("id = ?", movie.ID).
		Select("title", "overview", "poster_url", "backdrop_url", "release_date",
			"runtime", "genres", "vote_average", "synced_at").
		Updates(m)
	if result.Error != nil {
		return fmt.Errorf("failed to update movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrMovieNotFound
	}

	r.invalidate(ctx, movie.TMDBID)
	return nil
}

func (r *movieRepo) PublishAggregate(ctx context.Context, movie *biz.Movie, agg *biz.RatingAggregate) {
	r.invalidate(ctx, movie.TMDBID)
	r.updateRankings(ctx, movie.ID, agg)
}

func (r *movieRepo) TopRated(ctx context.Context, limit int) ([]*biz.Movie, error) {
	if r.data.rdb != nil {
		movies, err := r.topRatedFromRankings(ctx, limit)
		if err == nil && len(movies) > 0 {
			return movies, nil
		}
		if err != nil {
			r.log.Warnf("failed to read rankings, falling back to database: %v", err)
		}
	}

	var dbMovies []Movie
	err := r.data.DB(ctx).
		Where("rating_count > 0").
		Order("rating_average DESC").
		Order("rating_count DESC").
		Limit(limit).
		Find(&dbMovies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top rated movies: %w", err)
	}

	movies := make([]*biz.Movie, 0, len(dbMovies))
	for i := range dbMovies {
		movies = append(movies, r.modelToBiz(&dbMovies[i]))
	}
	return movies, nil
}

func (r *movieRepo) topRatedFromRankings(ctx context.Context, limit int) ([]*biz.Movie, error) {
	ids, err := r.data.rdb.ZRevRange(ctx, rankTopKey, 0, int64(limit-1)).Result()
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	var dbMovies []Movie
	if err := r.data.DB(ctx).Where("id IN ?", ids).Find(&dbMovies).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*Movie, len(dbMovies))
	for i := range dbMovies {
		byID[dbMovies[i].ID] = &dbMovies[i]
	}

	// Keep ranking order; skip members whose row no longer qualifies
	movies := make([]*biz.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok && m.RatingCount > 0 {
			movies = append(movies, r.modelToBiz(m))
		}
	}
	return movies, nil
}

// updateRankings updates Redis ZSet rankings
func (r *movieRepo) updateRankings(ctx context.Context, movieID string, agg *biz.RatingAggregate) {
	if r.data.rdb == nil {
		return
	}

	pipe := r.data.rdb.TxPipeline()
	pipe.ZAdd(ctx, rankPopularKey, redis.Z{
		Score:  float64(agg.Count),
		Member: movieID,
	})
	if agg.Count > 0 {
		pipe.ZAdd(ctx, rankTopKey, redis.Z{
			Score:  agg.Average,
			Member: movieID,
		})
	} else {
		pipe.ZRem(ctx, rankTopKey, movieID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warnf("failed to update rankings for movie %s: %v", movieID, err)
	}
}

// invalidate drops the cached row and bumps the movie's generation so reads
// that started before the write cannot cache their copy.
func (r *movieRepo) invalidate(ctx context.Context, tmdbID int64) {
	if r.data.rdb == nil {
		return
	}
	genKey := movieGenKey(tmdbID)
	_, err := r.data.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, movieGenTTL)
		pipe.Del(ctx, movieCacheKey(tmdbID))
		return nil
	})
	if err != nil {
		r.log.Warnf("failed to invalidate movie %d: %v", tmdbID, err)
	}
}

// Helper: Convert biz.Movie to data.Movie
func (r *movieRepo) bizToModel(m *biz.Movie) *Movie {
	genres := make([]Genre, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, Genre{ID: g.ID, Name: g.Name})
	}
	return &Movie{
		ID:            m.ID,
		TMDBID:        m.TMDBID,
		Title:         m.Title,
		Overview:      m.Overview,
		PosterURL:     m.PosterURL,
		BackdropURL:   m.BackdropURL,
		ReleaseDate:   m.ReleaseDate,
		Runtime:       m.Runtime,
		Genres:        genres,
		VoteAverage:   m.VoteAverage,
		RatingAverage: m.RatingAverage,
		RatingCount:   m.RatingCount,
		SyncedAt:      m.SyncedAt,
	}
}

// Helper: Convert data.Movie to biz.Movie
func (r *movieRepo) modelToBiz(m *Movie) *biz.Movie {
	return movieToBiz(m)
}

func movieToBiz(m *Movie) *biz.Movie {
	genres := make([]biz.Genre, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, biz.Genre{ID: g.ID, Name: g.Name})
	}
	return &biz.Movie{
		ID:            m.ID,
		TMDBID:        m.TMDBID,
		Title:         m.Title,
		Overview:      m.Overview,
		PosterURL:     m.PosterURL,
		BackdropURL:   m.BackdropURL,
		ReleaseDate:   m.ReleaseDate,
		Runtime:       m.Runtime,
		Genres:        genres,
		VoteAverage:   m.VoteAverage,
		RatingAverage: m.RatingAverage,
		RatingCount:   m.RatingCount,
		SyncedAt:      m.SyncedAt,
	}
}
