package biz

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons. kratos errors match on code and reason, so every sentinel
// below has its own reason.
const (
	ReasonValidation          = "VALIDATION"
	ReasonUnauthorized        = "UNAUTHORIZED"
	ReasonInvalidCredentials  = "INVALID_CREDENTIALS"
	ReasonForbidden           = "FORBIDDEN"
	ReasonAdminRequired       = "ADMIN_REQUIRED"
	ReasonUserExists          = "USER_EXISTS"
	ReasonUsernameTaken       = "USERNAME_TAKEN"
	ReasonReviewExists        = "REVIEW_EXISTS"
	ReasonUserNotFound        = "USER_NOT_FOUND"
	ReasonMovieNotFound       = "MOVIE_NOT_FOUND"
	ReasonReviewNotFound      = "REVIEW_NOT_FOUND"
	ReasonUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// Custom errors
var (
	ErrUnauthorized        = errors.Unauthorized(ReasonUnauthorized, "invalid token")
	ErrInvalidCredentials  = errors.Unauthorized(ReasonInvalidCredentials, "invalid credentials")
	ErrAdminRequired       = errors.Forbidden(ReasonAdminRequired, "admin role required")
	ErrReviewForbidden     = errors.Forbidden(ReasonForbidden, "you can only modify your own reviews")
	ErrUserExists          = errors.BadRequest(ReasonUserExists, "user with this email or username already exists")
	ErrUsernameTaken       = errors.BadRequest(ReasonUsernameTaken, "username is already taken")
	ErrReviewExists        = errors.BadRequest(ReasonReviewExists, "you have already reviewed this movie")
	ErrUserNotFound        = errors.NotFound(ReasonUserNotFound, "user not found")
	ErrMovieNotFound       = errors.NotFound(ReasonMovieNotFound, "movie not found")
	ErrReviewNotFound      = errors.NotFound(ReasonReviewNotFound, "review not found")
	ErrUpstreamUnavailable = errors.New(502, ReasonUpstreamUnavailable, "movie catalog is unavailable")
)

// ValidationError reports malformed or out-of-range input.
func ValidationError(format string, args ...any) *errors.Error {
	return errors.BadRequest(ReasonValidation, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Reason(err) == ReasonValidation
}
