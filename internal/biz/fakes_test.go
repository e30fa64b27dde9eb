package biz

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetMovie(ctx context.Context, tmdbID int64) (*CatalogMovie, error) {
	args := m.Called(ctx, tmdbID)
	cm, _ := args.Get(0).(*CatalogMovie)
	return cm, args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, query string, page int32) (*MoviePage, error) {
	args := m.Called(ctx, query, page)
	p, _ := args.Get(0).(*MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) Discover(ctx context.Context, query *DiscoverQuery) (*MoviePage, error) {
	args := m.Called(ctx, query)
	p, _ := args.Get(0).(*MoviePage)
	return p, args.Error(1)
}

func (m *mockCatalog) Popular(ctx context.Context) ([]*MovieSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]*MovieSummary)
	return s, args.Error(1)
}

func (m *mockCatalog) Trending(ctx context.Context) ([]*MovieSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]*MovieSummary)
	return s, args.Error(1)
}

func (m *mockCatalog) Genres(ctx context.Context) ([]Genre, error) {
	args := m.Called(ctx)
	g, _ := args.Get(0).([]Genre)
	return g, args.Error(1)
}

// store is an in-memory implementation of every biz repository. Its
// transaction holds one lock for the whole callback and rolls back reviews
// when the callback fails.
type store struct {
	mu sync.Mutex

	users     map[string]*User
	movies    map[string]*Movie
	reviews   map[string]*Review
	watchlist map[string]*WatchlistEntry

	inserts   int
	published []RatingAggregate
}

func newStore() *store {
	return &store{
		users:     map[string]*User{},
		movies:    map[string]*Movie{},
		reviews:   map[string]*Review{},
		watchlist: map[string]*WatchlistEntry{},
	}
}

type txKey struct{}

func (s *store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	unlock := s.lock(ctx)
	defer unlock()

	snapshot := make(map[string]*Review, len(s.reviews))
	for k, v := range s.reviews {
		cp := *v
		snapshot[k] = &cp
	}
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.reviews = snapshot
		return err
	}
	return nil
}

// users

func (s *store) CreateUser(ctx context.Context, user *User) error {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return ErrUserExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *store) GetUser(ctx context.Context, id string) (*User, error) {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *store) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *store) UpdateUsername(ctx context.Context, id, username string) error {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.ID != id && u.Username == username {
			return ErrUsernameTaken
		}
	}
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Username = username
	return nil
}

// movies

func (s *store) InsertOrGet(ctx context.Context, movie *Movie) (*Movie, error) {
	defer s.lock(ctx)()
	for _, m := range s.movies {
		if m.TMDBID == movie.TMDBID {
			cp := *m
			return &cp, nil
		}
	}
	s.inserts++
	cp := *movie
	s.movies[movie.ID] = &cp
	out := cp
	return &out, nil
}

func (s *store) GetMovie(ctx context.Context, id string) (*Movie, error) {
	defer s.lock(ctx)()
	m, ok := s.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *store) GetMovieByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	defer s.lock(ctx)()
	for _, m := range s.movies {
		if m.TMDBID == tmdbID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrMovieNotFound
}

func (s *store) UpdateMetadata(ctx context.Context, movie *Movie) error {
	defer s.lock(ctx)()
	m, ok := s.movies[movie.ID]
	if !ok {
		return ErrMovieNotFound
	}
	avg, count := m.RatingAverage, m.RatingCount
	*m = *movie
	m.RatingAverage, m.RatingCount = avg, count
	return nil
}

func (s *store) PublishAggregate(ctx context.Context, _ *Movie, agg *RatingAggregate) {
	defer s.lock(ctx)()
	s.published = append(s.published, *agg)
}

func (s *store) TopRated(ctx context.Context, limit int) ([]*Movie, error) {
	defer s.lock(ctx)()
	var out []*Movie
	for _, m := range s.movies {
		if m.RatingCount > 0 {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RatingAverage > out[j].RatingAverage })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// reviews

func (s *store) CreateReview(ctx context.Context, review *Review) error {
	defer s.lock(ctx)()
	for _, r := range s.reviews {
		if r.UserID == review.UserID && r.MovieID == review.MovieID {
			return ErrReviewExists
		}
	}
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

func (s *store) GetReview(ctx context.Context, id string) (*Review, error) {
	defer s.lock(ctx)()
	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *store) GetReviewByPair(ctx context.Context, userID, movieID string) (*Review, error) {
	defer s.lock(ctx)()
	for _, r := range s.reviews {
		if r.UserID == userID && r.MovieID == movieID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrReviewNotFound
}

func (s *store) UpdateReview(ctx context.Context, review *Review) error {
	defer s.lock(ctx)()
	r, ok := s.reviews[review.ID]
	if !ok {
		return ErrReviewNotFound
	}
	r.Rating, r.Comment, r.UpdatedAt = review.Rating, review.Comment, review.UpdatedAt
	return nil
}

func (s *store) DeleteReview(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *store) LockMovie(ctx context.Context, movieID string) error {
	defer s.lock(ctx)()
	if _, ok := s.movies[movieID]; !ok {
		return ErrMovieNotFound
	}
	return nil
}

func (s *store) RecomputeAggregate(ctx context.Context, movieID string) (*RatingAggregate, error) {
	defer s.lock(ctx)()
	var sum, count int64
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			sum += int64(r.Rating)
			count++
		}
	}
	agg := &RatingAggregate{Count: count}
	if count > 0 {
		agg.Average = float64(sum) / float64(count)
	}
	if m, ok := s.movies[movieID]; ok {
		m.RatingAverage, m.RatingCount = agg.Average, agg.Count
	}
	return agg, nil
}

func (s *store) ListByMovie(ctx context.Context, movieID string) ([]*Review, error) {
	defer s.lock(ctx)()
	var out []*Review
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *store) ListByUser(ctx context.Context, userID string) ([]*Review, error) {
	defer s.lock(ctx)()
	var out []*Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// watchlistStore exposes the watchlist methods; ListByUser would otherwise
// collide with the review repository's.
type watchlistStore struct {
	*store
}

func (s watchlistStore) AddEntry(ctx context.Context, entry *WatchlistEntry) (*WatchlistEntry, bool, error) {
	defer s.lock(ctx)()
	for _, e := range s.watchlist {
		if e.UserID == entry.UserID && e.MovieID == entry.MovieID {
			cp := *e
			return &cp, false, nil
		}
	}
	cp := *entry
	s.watchlist[entry.ID] = &cp
	out := cp
	return &out, true, nil
}

func (s watchlistStore) RemoveEntry(ctx context.Context, userID, movieID string) (bool, error) {
	defer s.lock(ctx)()
	for id, e := range s.watchlist {
		if e.UserID == userID && e.MovieID == movieID {
			delete(s.watchlist, id)
			return true, nil
		}
	}
	return false, nil
}

func (s watchlistStore) Exists(ctx context.Context, userID, movieID string) (bool, error) {
	defer s.lock(ctx)()
	for _, e := range s.watchlist {
		if e.UserID == userID && e.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (s watchlistStore) ListByUser(ctx context.Context, userID string) ([]*WatchlistEntry, error) {
	defer s.lock(ctx)()
	var out []*WatchlistEntry
	for _, e := range s.watchlist {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (s *store) count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case "reviews":
		return len(s.reviews)
	case "watchlist":
		return len(s.watchlist)
	case "movies":
		return len(s.movies)
	}
	return 0
}
