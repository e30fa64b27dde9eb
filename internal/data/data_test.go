package data

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cinescope/internal/biz"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestData opens a migrated sqlite database in a temp dir. A single
// connection keeps sqlite's writer lock out of the way of concurrent tests.
func newTestData(t *testing.T) *Data {
	t.Helper()
	return openTestData(t, nil)
}

// newTestDataWithRedis is newTestData backed by an in-process redis.
func newTestDataWithRedis(t *testing.T) (*Data, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return openTestData(t, rdb), mr
}

func openTestData(t *testing.T, rdb *redis.Client) *Data {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cinescope.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	d := NewDataFromClients(db, rdb, log.DefaultLogger)
	require.NoError(t, d.Migrate())
	return d
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func seedUser(t *testing.T, d *Data, username string) *biz.User {
	t.Helper()
	user := &biz.User{
		ID:           newID(t),
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hash",
		Role:         biz.RoleUser,
		JoinedAt:     time.Now().UTC(),
	}
	require.NoError(t, NewUserRepo(d, log.DefaultLogger).CreateUser(context.Background(), user))
	return user
}

func seedMovie(t *testing.T, d *Data, tmdbID int64) *biz.Movie {
	t.Helper()
	movie, err := NewMovieRepo(d, log.DefaultLogger).InsertOrGet(context.Background(), &biz.Movie{
		ID:       newID(t),
		TMDBID:   tmdbID,
		Title:    fmt.Sprintf("Movie %d", tmdbID),
		Genres:   []biz.Genre{{ID: 18, Name: "Drama"}},
		SyncedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return movie
}
