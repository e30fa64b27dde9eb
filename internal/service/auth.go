package service

import (
	"context"
	"fmt"
	"net/http"

	"cinescope/internal/biz"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Redact keeps the password out of request logs.
func (r *RegisterRequest) Redact() string {
	return fmt.Sprintf("email:%q username:%q", r.Email, r.Username)
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Redact keeps the password out of request logs.
func (r *LoginRequest) Redact() string {
	return fmt.Sprintf("email:%q", r.Email)
}

// UpdateUserRequest changes the caller's profile.
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
}

// AuthReply is returned by register and login.
type AuthReply struct {
	Message string     `json:"message"`
	User    *UserReply `json:"user"`
	Token   string     `json:"token"`

	status int
}

// HTTPStatus reports 201 for a new registration.
func (r *AuthReply) HTTPStatus() int { return r.status }

// MeReply wraps the caller's account.
type MeReply struct {
	User *UserReply `json:"user"`
}

// AuthService exposes the identity provider.
type AuthService struct {
	uc *biz.AuthUseCase
}

// NewAuthService creates a new AuthService
func NewAuthService(uc *biz.AuthUseCase) *AuthService {
	return &AuthService{uc: uc}
}

// Register implements account registration
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthReply, error) {
	user, token, err := s.uc.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &AuthReply{
		Message: "User registered successfully",
		User:    userToReply(user),
		Token:   token,
		status:  http.StatusCreated,
	}, nil
}

// Login implements credential login
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthReply, error) {
	user, token, err := s.uc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &AuthReply{
		Message: "Login successful",
		User:    userToReply(user),
		Token:   token,
		status:  http.StatusOK,
	}, nil
}

// Me returns the authenticated account
func (s *AuthService) Me(ctx context.Context, _ *EmptyRequest) (*MeReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.uc.Me(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &MeReply{User: userToReply(user)}, nil
}

// UpdateUser changes the authenticated user's username
func (s *AuthService) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*MessageReply, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uc.UpdateProfile(ctx, claims.UserID, req.Username); err != nil {
		return nil, err
	}
	return &MessageReply{Message: "User details updated"}, nil
}
