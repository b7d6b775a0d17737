package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"backoffice/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const actorCtxKey contextKey = "actor"

// ActorFromContext returns the authenticated actor placed by Auth.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(domain.Actor)
	return actor, ok
}

// WithActor is used by tests to inject an actor without a token.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// Auth verifies a bearer JWT and puts the actor (subject id + role) into
// the request context. Token issuance belongs to the external auth service;
// this layer only consumes it.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusUnauthorized)
				return
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromClaims(claims jwt.MapClaims) (domain.Actor, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("subject not found in token")
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return domain.Actor{}, errors.New("subject is not a valid id")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return domain.Actor{}, errors.New("role not found in token")
	}

	switch role {
	case domain.RoleAdmin, domain.RoleSales, domain.RoleClient:
	default:
		return domain.Actor{}, errors.New("unknown role in token")
	}

	return domain.Actor{ID: id, Role: role}, nil
}
