package biz

import (
	"context"
	"time"
)

// Role of a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User domain model
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	JoinedAt     time.Time
	AvatarURL    *string
}

// UserClaims are the identity claims carried by a bearer token
type UserClaims struct {
	UserID   string
	Email    string
	Username string
	Role     Role
}

// Genre domain model
type Genre struct {
	ID   int64
	Name string
}

// Movie is the local mirror of one catalog record
type Movie struct {
	ID            string
	TMDBID        int64
	Title         string
	Overview      string
	PosterURL     *string
	BackdropURL   *string
	ReleaseDate   *time.Time
	Runtime       int32
	Genres        []Genre
	VoteAverage   float64
	RatingAverage float64
	RatingCount   int64
	SyncedAt      time.Time
}

// MovieSummary is a read-through catalog listing item; it is never persisted
type MovieSummary struct {
	TMDBID      int64
	Title       string
	Overview    string
	PosterURL   *string
	ReleaseDate string
	VoteAverage float64
	GenreIDs    []int64
}

// MoviePage is one page of catalog listing results
type MoviePage struct {
	Items      []*MovieSummary
	Page       int32
	Limit      int32
	Total      int64
	TotalPages int32
}

// CatalogMovie is a normalized catalog detail record
type CatalogMovie struct {
	TMDBID      int64
	Title       string
	Overview    string
	PosterURL   *string
	BackdropURL *string
	ReleaseDate *time.Time
	Runtime     int32
	Genres      []Genre
	VoteAverage float64
}

// DiscoverQuery is the catalog-facing form of a validated MovieFilter
type DiscoverQuery struct {
	Page      int32
	Genre     *int64
	Year      *int32
	MinRating *float64
	SortBy    string
}

// Review domain model
type Review struct {
	ID        string
	UserID    string
	MovieID   string
	Rating    int32
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// MovieTMDBID is the catalog id of the reviewed movie; not stored.
	MovieTMDBID int64

	// Populated on list reads only
	Author *ReviewAuthor
	Movie  *MovieRef
}

// ReviewAuthor is the public projection of a review's owner
type ReviewAuthor struct {
	Username  string
	AvatarURL *string
}

// MovieRef is the minimal movie projection joined onto reviews
type MovieRef struct {
	TMDBID      int64
	Title       string
	PosterURL   *string
	ReleaseDate *time.Time
}

// RatingAggregate domain model
type RatingAggregate struct {
	Average float64
	Count   int64
}

// WatchlistEntry domain model
type WatchlistEntry struct {
	ID      string
	UserID  string
	MovieID string
	AddedAt time.Time

	// Populated on list reads and on add
	Movie *Movie
}

// UserRepo defines the repository interface for users
type UserRepo interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateUsername(ctx context.Context, id, username string) error
}

// MovieRepo defines the repository interface for the local movie mirror
type MovieRepo interface {
	// InsertOrGet inserts movie unless a row with the same TMDB id exists and
	// returns the stored row in either case.
	InsertOrGet(ctx context.Context, movie *Movie) (*Movie, error)
	GetMovie(ctx context.Context, id string) (*Movie, error)
	GetMovieByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error)
	UpdateMetadata(ctx context.Context, movie *Movie) error
	// PublishAggregate propagates a committed aggregate to caches and rankings.
	PublishAggregate(ctx context.Context, movie *Movie, agg *RatingAggregate)
	TopRated(ctx context.Context, limit int) ([]*Movie, error)
}

// ReviewRepo defines the repository interface for reviews
type ReviewRepo interface {
	CreateReview(ctx context.Context, review *Review) error
	GetReview(ctx context.Context, id string) (*Review, error)
	GetReviewByPair(ctx context.Context, userID, movieID string) (*Review, error)
	UpdateReview(ctx context.Context, review *Review) error
	DeleteReview(ctx context.Context, id string) error
	// LockMovie takes a row lock on the movie for the rest of the transaction.
	LockMovie(ctx context.Context, movieID string) error
	// RecomputeAggregate recomputes mean and count from the stored reviews
	// and writes them to the movie row.
	RecomputeAggregate(ctx context.Context, movieID string) (*RatingAggregate, error)
	ListByMovie(ctx context.Context, movieID string) ([]*Review, error)
	ListByUser(ctx context.Context, userID string) ([]*Review, error)
}

// WatchlistRepo defines the repository interface for watchlist entries
type WatchlistRepo interface {
	// AddEntry inserts the pair unless it exists; created reports whether a row was written.
	AddEntry(ctx context.Context, entry *WatchlistEntry) (stored *WatchlistEntry, created bool, err error)
	RemoveEntry(ctx context.Context, userID, movieID string) (removed bool, err error)
	Exists(ctx context.Context, userID, movieID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*WatchlistEntry, error)
}

// Transaction runs fn inside one database transaction carried by ctx
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogClient defines the interface for the external movie catalog
type CatalogClient interface {
	GetMovie(ctx context.Context, tmdbID int64) (*CatalogMovie, error)
	Search(ctx context.Context, query string, page int32) (*MoviePage, error)
	Discover(ctx context.Context, query *DiscoverQuery) (*MoviePage, error)
	Popular(ctx context.Context) ([]*MovieSummary, error)
	Trending(ctx context.Context) ([]*MovieSummary, error)
	Genres(ctx context.Context) ([]Genre, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenManager issues and parses signed bearer tokens
type TokenManager interface {
	Issue(claims *UserClaims) (string, error)
	Parse(token string) (*UserClaims, error)
}
