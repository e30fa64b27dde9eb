package biz

import "strings"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	minReleaseYear   = 1874
	maxReleaseYear   = 2100
)

// Sort orders accepted by MovieFilter.SortBy, mapped to catalog sort keys.
var sortOrders = map[string]string{
	"popularity":   "popularity.desc",
	"title":        "title.asc",
	"rating":       "vote_average.desc",
	"release_date": "primary_release_date.desc",
}

// MovieFilter enumerates every filter recognized by the movie listing.
// When SearchQuery is set, the listing runs a text search and the other
// filters are ignored.
type MovieFilter struct {
	Page        int32
	Limit       int32
	Genre       *int64
	Year        *int32
	MinRating   *float64
	SortBy      string
	SearchQuery string
}

// Normalize applies defaults and validates every field.
func (f *MovieFilter) Normalize() error {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Page < 1 {
		return ValidationError("page must be at least 1")
	}
	if f.Limit == 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit < 1 || f.Limit > maxPageLimit {
		return ValidationError("limit must be between 1 and %d", maxPageLimit)
	}
	if f.Genre != nil && *f.Genre <= 0 {
		return ValidationError("genre must be a positive genre id")
	}
	if f.Year != nil && (*f.Year < minReleaseYear || *f.Year > maxReleaseYear) {
		return ValidationError("year must be between %d and %d", minReleaseYear, maxReleaseYear)
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 10) {
		return ValidationError("rating must be between 0 and 10")
	}
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if f.SortBy == "" {
		f.SortBy = "popularity"
	}
	if _, ok := sortOrders[f.SortBy]; !ok {
		return ValidationError("sortBy must be one of: popularity, title, rating, release_date")
	}
	f.SearchQuery = strings.TrimSpace(f.SearchQuery)
	return nil
}

// DiscoverQuery converts a normalized filter into the catalog query.
func (f *MovieFilter) DiscoverQuery() *DiscoverQuery {
	return &DiscoverQuery{
		Page:      f.Page,
		Genre:     f.Genre,
		Year:      f.Year,
		MinRating: f.MinRating,
		SortBy:    sortOrders[f.SortBy],
	}
}
