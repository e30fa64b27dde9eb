package biz

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// AuthUseCase is the identity provider: registration, login, token
// verification and profile updates.
type AuthUseCase struct {
	repo   UserRepo
	hasher PasswordHasher
	tokens TokenManager
	log    *log.Helper

	// dummyHash is compared against on unknown emails so both login
	// failure paths cost one hash comparison.
	dummyHash string
}

// NewAuthUseCase creates a new AuthUseCase instance
func NewAuthUseCase(repo UserRepo, hasher PasswordHasher, tokens TokenManager, logger log.Logger) (*AuthUseCase, error) {
	dummy, err := hasher.Hash("cinescope-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &AuthUseCase{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		log:       log.NewHelper(logger),
		dummyHash: dummy,
	}, nil
}

// Register creates a USER account and issues its first token
func (uc *AuthUseCase) Register(ctx context.Context, email, username, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	if email == "" || username == "" || password == "" {
		return nil, "", ValidationError("all fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ValidationError("email must be a valid email address")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, "", ValidationError("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return nil, "", ValidationError("password must not exceed %d bytes", MaxPasswordLength)
	}
	if err := validateUsername(username); err != nil {
		return nil, "", err
	}

	exists, err := uc.repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, "", ErrUserExists
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate user ID: %w", err)
	}

	user := &User{
		ID:           id.String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
		JoinedAt:     time.Now().UTC(),
	}
	// A concurrent registration can still win the unique index; the repo
	// reports that as ErrUserExists.
	if err := uc.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := uc.tokens.Issue(claimsOf(user))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	uc.log.WithContext(ctx).Infof("registered user %s", user.ID)
	return user, token, nil
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ValidationError("email and password are required")
	}

	user, err := uc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, "", fmt.Errorf("failed to get user: %w", err)
		}
		uc.hasher.Compare(uc.dummyHash, password)
		return nil, "", ErrInvalidCredentials
	}

	if !uc.hasher.Compare(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(claimsOf(user))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Verify parses a bearer token and confirms its user still exists. The
// returned claims reflect the stored user, not the token payload.
func (uc *AuthUseCase) Verify(ctx context.Context, token string) (*UserClaims, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := uc.repo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return claimsOf(user), nil
}

// Me returns the stored account for userID
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*User, error) {
	return uc.repo.GetUser(ctx, userID)
}

// UpdateProfile changes the user's username
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID, username string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := validateUsername(username); err != nil {
		return err
	}
	return uc.repo.UpdateUsername(ctx, userID, username)
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return ValidationError("username must be at least %d characters long", MinUsernameLength)
	}
	if n > MaxUsernameLength {
		return ValidationError("username must not exceed %d characters", MaxUsernameLength)
	}
	return nil
}

func claimsOf(user *User) *UserClaims {
	return &UserClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}
}
