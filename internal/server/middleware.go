package server

import (
	"context"
	"strings"

	"cinescope/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// AuthMiddleware validates the Bearer token and stores the caller's claims
// in the request context
func AuthMiddleware(uc *biz.AuthUseCase) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, errors.Unauthorized(biz.ReasonUnauthorized, "missing transport info")
			}

			authHeader := tr.RequestHeader().Get("Authorization")
			if authHeader == "" {
				return nil, errors.Unauthorized(biz.ReasonUnauthorized, "missing Authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return nil, errors.Unauthorized(biz.ReasonUnauthorized, "invalid Authorization header format")
			}

			claims, err := uc.Verify(ctx, parts[1])
			if err != nil {
				return nil, err
			}
			return handler(biz.NewContext(ctx, claims), req)
		}
	}
}

// AdminMiddleware rejects callers without the ADMIN role. It must run after
// AuthMiddleware.
func AdminMiddleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			claims, ok := biz.FromContext(ctx)
			if !ok {
				return nil, biz.ErrUnauthorized
			}
			if claims.Role != biz.RoleAdmin {
				return nil, biz.ErrAdminRequired
			}
			return handler(ctx, req)
		}
	}
}

// ValidationMiddleware checks `validate` struct tags on every request
func ValidationMiddleware(v *Validator) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if err := v.Validate(req); err != nil {
				return nil, err
			}
			return handler(ctx, req)
		}
	}
}

func operationIn(operations ...string) func(ctx context.Context, operation string) bool {
	set := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		set[op] = struct{}{}
	}
	return func(_ context.Context, operation string) bool {
		_, ok := set[operation]
		return ok
	}
}
