package biz

import "context"

type claimsKey struct{}

// NewContext returns a copy of ctx carrying the authenticated user's claims.
func NewContext(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the authenticated user's claims, if any.
func FromContext(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*UserClaims)
	return claims, ok && claims != nil
}
