package biz

import (
	"context"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWatchlistUseCase_AddIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("GetMovie", mock.Anything, int64(155)).Return(catalogMovie(155, "The Dark Knight"), nil)
	ctx := context.Background()

	first, created, err := f.watchlist.Add(ctx, "u1", 155)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.Movie)
	assert.Equal(t, "The Dark Knight", first.Movie.Title)

	second, created, err := f.watchlist.Add(ctx, "u1", 155)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.count("watchlist"))

	entries, err := f.watchlist.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWatchlistUseCase_RemoveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("GetMovie", mock.Anything, int64(155)).Return(catalogMovie(155, "The Dark Knight"), nil)
	ctx := context.Background()

	// Never mirrored
	require.NoError(t, f.watchlist.Remove(ctx, "u1", 424242))

	_, _, err := f.watchlist.Add(ctx, "u1", 155)
	require.NoError(t, err)
	require.NoError(t, f.watchlist.Remove(ctx, "u1", 155))
	require.NoError(t, f.watchlist.Remove(ctx, "u1", 155))

	member, err := f.watchlist.IsMember(ctx, "u1", 155)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestWatchlistUseCase_Toggle(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("GetMovie", mock.Anything, int64(155)).Return(catalogMovie(155, "The Dark Knight"), nil)
	ctx := context.Background()

	member, err := f.watchlist.Toggle(ctx, "u1", 155)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = f.watchlist.Toggle(ctx, "u1", 155)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, 0, f.store.count("watchlist"))
}

func TestWatchlistUseCase_AddUnknownMovie(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("GetMovie", mock.Anything, int64(1)).Return(nil, ErrMovieNotFound)

	_, _, err := f.watchlist.Add(context.Background(), "u1", 1)
	assert.True(t, errors.Is(err, ErrMovieNotFound))
	assert.Equal(t, 0, f.store.count("watchlist"))
}
