package auth

import (
	"errors"
	"fmt"
	"time"

	"cinescope/internal/biz"
	"cinescope/internal/conf"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("auth: token signing secret is not configured")

// tokenClaims is the JWT payload
type tokenClaims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type jwtManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns an HS256 token manager
func NewTokenManager(c *conf.Auth) (biz.TokenManager, error) {
	if c.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := c.TokenTtl.AsDuration()
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &jwtManager{
		secret: []byte(c.Secret),
		issuer: c.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *jwtManager) Issue(claims *biz.UserClaims) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		ID:       claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

func (m *jwtManager) Parse(raw string) (*biz.UserClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("parse token: missing user id")
	}

	return &biz.UserClaims{
		UserID:   claims.ID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     biz.Role(claims.Role),
	}, nil
}
