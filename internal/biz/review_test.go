package biz

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reviewFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.catalog.On("GetMovie", mock.Anything, int64(27205)).Return(catalogMovie(27205, "Inception"), nil)
	return f
}

func TestReviewUseCase_SubmitRecomputesAggregate(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	var reviews []*Review
	for i, rating := range []int32{8, 6, 10} {
		r, err := f.reviews.Submit(ctx, []string{"u1", "u2", "u3"}[i], 27205, rating, "  good  ")
		require.NoError(t, err)
		assert.Equal(t, "good", r.Comment)
		reviews = append(reviews, r)
	}

	movie, err := f.movies.LookupMovie(ctx, 27205)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, movie.RatingAverage, 1e-9)
	assert.EqualValues(t, 3, movie.RatingCount)

	require.NoError(t, f.reviews.Delete(ctx, reviews[2].ID, "u3"))
	movie, err = f.movies.LookupMovie(ctx, 27205)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, movie.RatingAverage, 1e-9)
	assert.EqualValues(t, 2, movie.RatingCount)

	require.Len(t, f.store.published, 4)
	assert.EqualValues(t, 2, f.store.published[3].Count)
}

func TestReviewUseCase_SubmitTwiceConflicts(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	_, err := f.reviews.Submit(ctx, "u1", 27205, 7, "")
	require.NoError(t, err)

	_, err = f.reviews.Submit(ctx, "u1", 27205, 2, "changed my mind")
	assert.True(t, errors.Is(err, ErrReviewExists))

	stored, err := f.reviews.ListForMovie(ctx, 27205)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.EqualValues(t, 7, stored[0].Rating)
}

func TestReviewUseCase_ConcurrentSubmitsKeepAggregate(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	// Mirror first so every writer targets the same row
	_, err := f.movies.ResolveMovie(ctx, 27205)
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reviews.Submit(ctx, "user-"+string(rune('a'+i)), 27205, int32(i%10)+1, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	movie, err := f.movies.LookupMovie(ctx, 27205)
	require.NoError(t, err)
	assert.EqualValues(t, writers, movie.RatingCount)
	assert.InDelta(t, 5.5, movie.RatingAverage, 1e-9)
}

func TestReviewUseCase_Validation(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	for _, rating := range []int32{0, 11, -3} {
		_, err := f.reviews.Submit(ctx, "u1", 27205, rating, "")
		assert.True(t, IsValidation(err), "rating %d", rating)
	}

	_, err := f.reviews.Submit(ctx, "u1", 27205, 5, strings.Repeat("x", MaxCommentLength+1))
	assert.True(t, IsValidation(err))

	assert.Equal(t, 0, f.store.count("reviews"))
}

func TestReviewUseCase_OwnershipAndNotFound(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	review, err := f.reviews.Submit(ctx, "owner", 27205, 9, "great")
	require.NoError(t, err)

	err = f.reviews.Delete(ctx, review.ID, "intruder")
	assert.True(t, errors.Is(err, ErrReviewForbidden))

	_, err = f.reviews.UpdateByID(ctx, "intruder", review.ID, 1, "")
	assert.True(t, errors.Is(err, ErrReviewForbidden))

	err = f.reviews.Delete(ctx, "not-a-uuid", "owner")
	assert.True(t, errors.Is(err, ErrReviewNotFound))

	err = f.reviews.Delete(ctx, "0190f3f2-0000-7000-8000-000000000000", "owner")
	assert.True(t, errors.Is(err, ErrReviewNotFound))

	stored, err := f.store.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 9, stored.Rating)
}

func TestReviewUseCase_Update(t *testing.T) {
	f := reviewFixture(t)
	ctx := context.Background()

	_, err := f.reviews.Update(ctx, "u1", 27205, 4, "")
	assert.True(t, errors.Is(err, ErrReviewNotFound))

	review, err := f.reviews.Submit(ctx, "u1", 27205, 8, "first")
	require.NoError(t, err)

	updated, err := f.reviews.Update(ctx, "u1", 27205, 4, "second")
	require.NoError(t, err)
	assert.Equal(t, review.ID, updated.ID)
	assert.EqualValues(t, 4, updated.Rating)

	updated, err = f.reviews.UpdateByID(ctx, "u1", review.ID, 6, "third")
	require.NoError(t, err)
	assert.Equal(t, "third", updated.Comment)

	movie, err := f.movies.LookupMovie(ctx, 27205)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, movie.RatingAverage, 1e-9)
	assert.EqualValues(t, 1, movie.RatingCount)
}

func TestReviewUseCase_ListForUnmirroredMovie(t *testing.T) {
	f := newFixture(t)

	reviews, err := f.reviews.ListForMovie(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	f.catalog.AssertNotCalled(t, "GetMovie", mock.Anything, mock.Anything)
}
