package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"campus-billing/internal/domain"
	"campus-billing/internal/repository"
)

type ctxKey string

const actorKey ctxKey = "actor"

// Actor is the resolved identity attached to a request. Billing trusts it;
// credentials are verified by the identity system that issued the token.
type Actor struct {
	ID   string
	Role domain.Role
}

// TokenMiddleware resolves the bearer token (or, for websocket connections,
// the token query parameter) to an actor and rejects the request otherwise.
func TokenMiddleware(tokenRepo *repository.ActorTokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var plain string

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plain = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}
			if plain == "" {
				plain = r.URL.Query().Get("token")
			}
			if plain == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := tokenRepo.FindByPlainToken(r.Context(), plain)
			if err != nil {
				log.Printf("[AUTH] token lookup failed: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor := Actor{ID: token.ActorID, Role: token.Role}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok {
		return Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}

// WithActor returns a context carrying the given actor. Used by tests and by
// the websocket endpoint's query-token fallback.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
