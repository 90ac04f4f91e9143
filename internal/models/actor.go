package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// ActorClaims identifies the staff member performing a request. Tokens
// are issued by the upstream auth gateway; this service only reads them
// to attribute audit entries.
type ActorClaims struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type actorContextKey struct{}

// WithActor stores actor claims on the context.
func WithActor(ctx context.Context, claims *ActorClaims) context.Context {
	return context.WithValue(ctx, actorContextKey{}, claims)
}

// ActorFromContext returns the actor claims, or nil for anonymous requests.
func ActorFromContext(ctx context.Context) *ActorClaims {
	claims, _ := ctx.Value(actorContextKey{}).(*ActorClaims)
	return claims
}
