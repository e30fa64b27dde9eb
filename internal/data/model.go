package data

import (
	"time"
)

// User represents the users table. Email and username are stored lower-case
// so the unique indexes are case-insensitive.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex:uq_users_email;not null;size:255"`
	Username     string    `gorm:"uniqueIndex:uq_users_username;not null;size:30"`
	PasswordHash string    `gorm:"column:password_hash;not null;size:100"`
	Role         string    `gorm:"not null;size:10;default:USER"`
	AvatarURL    *string   `gorm:"column:avatar_url;size:512"`
	JoinedAt     time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// Genre is stored inside movies.genres as JSON
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie represents the movies table, the local mirror of catalog records
type Movie struct {
	ID          string     `gorm:"primaryKey;size:36"`
	TMDBID      int64      `gorm:"column:tmdb_id;uniqueIndex:uq_movies_tmdb_id;not null"`
	Title       string     `gorm:"not null;size:255"`
	Overview    string     `gorm:"type:text"`
	PosterURL   *string    `gorm:"column:poster_url;size:512"`
	BackdropURL *string    `gorm:"column:backdrop_url;size:512"`
	ReleaseDate *time.Time `gorm:"type:date"`
	Runtime     int32
	Genres      []Genre `gorm:"serializer:json;type:text"`
	VoteAverage float64 `gorm:"column:vote_average"`

	// Aggregate rating fields, owned by the review ledger
	RatingAverage float64 `gorm:"column:rating_average;not null;default:0;index:idx_movies_rating"`
	RatingCount   int64   `gorm:"column:rating_count;not null;default:0"`

	SyncedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// Review represents the reviews table
type Review struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"not null;size:36;uniqueIndex:uq_review_user_movie;index:idx_reviews_user"`
	MovieID   string    `gorm:"not null;size:36;uniqueIndex:uq_review_user_movie;index:idx_reviews_movie"`
	Rating    int32     `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 10"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index:idx_reviews_created"`
	UpdatedAt time.Time `gorm:"not null"`

	// Foreign keys
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:RESTRICT"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// WatchlistEntry represents the watchlist_entries table
type WatchlistEntry struct {
	ID      string    `gorm:"primaryKey;size:36"`
	UserID  string    `gorm:"not null;size:36;uniqueIndex:uq_watchlist_user_movie;index:idx_watchlist_user"`
	MovieID string    `gorm:"not null;size:36;uniqueIndex:uq_watchlist_user_movie"`
	AddedAt time.Time `gorm:"not null"`

	// Foreign keys
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Movie Movie `gorm:"foreignKey:MovieID;constraint:OnDelete:RESTRICT"`
}

// TableName overrides the table name
func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}

// RatingAggregate represents the aggregated rating result
type RatingAggregate struct {
	Average float64
	Count   int64
}
