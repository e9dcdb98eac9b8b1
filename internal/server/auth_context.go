package server

import (
	"context"

	"mingle/internal/models"
)

type principalContextKey struct{}

func contextWithPrincipal(ctx context.Context, principal models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func principalFromContext(ctx context.Context) (models.Principal, bool) {
	if ctx == nil {
		return models.Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(models.Principal)
	return principal, ok
}
