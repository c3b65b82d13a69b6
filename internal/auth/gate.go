package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/contactkeep/contactkeep/internal/httputil"
	"github.com/contactkeep/contactkeep/internal/logging"
	"github.com/contactkeep/contactkeep/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// CurrentUserContextKey holds the resolved *user.User for the request
	CurrentUserContextKey ContextKey = "current_user"
)

// tokenVerifier resolves a bearer token to its subject email
type tokenVerifier interface {
	VerifyAccessToken(tokenStr string) (string, error)
}

// sessionCache is the gate's view of the user snapshot cache
type sessionCache interface {
	Get(ctx context.Context, email string) (*user.User, error)
	Put(ctx context.Context, email string, u *user.User) error
}

// userFinder is the gate's view of user storage
type userFinder interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Middleware resolves "who is making this request" from a bearer token.
// Order per request: token verify, cache, storage. The cache bounds the
// common case to in-memory work; storage is touched only on cache miss.
type Middleware struct {
	tokens tokenVerifier
	cache  sessionCache
	users  userFinder
}

func NewMiddleware(tokens tokenVerifier, cache sessionCache, users userFinder) *Middleware {
	return &Middleware{
		tokens: tokens,
		cache:  cache,
		users:  users,
	}
}

// RequireAuth validates the access token and loads the current user
// into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token, ok := extractBearerToken(r)
		if !ok {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		email, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrInvalidScope) {
				httputil.RespondErrorWithCode(w, ErrInvalidScope.Error(), httputil.CodeInvalidScope, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, ErrCredentials.Error(), httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		current, err := m.resolveUser(r.Context(), email)
		if err != nil {
			// Unknown subject gets the same message as a bad token so
			// account existence does not leak.
			logger.Warn("failed to resolve user from token", "error", err.Error())
			httputil.RespondErrorWithCode(w, ErrCredentials.Error(), httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserContextKey, current)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUser returns the cached snapshot when present, falling back to
// storage on a miss and populating the cache for the next request.
func (m *Middleware) resolveUser(ctx context.Context, email string) (*user.User, error) {
	cached, err := m.cache.Get(ctx, email)
	if err != nil {
		// A broken cache must not take authentication down with it.
		logging.GetLoggerFromContext(ctx).Warn("session cache read failed", "error", err.Error())
	}
	if cached != nil {
		return cached, nil
	}

	current, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Put(ctx, email, current); err != nil {
		logging.GetLoggerFromContext(ctx).Warn("session cache write failed", "error", err.Error())
	}

	return current, nil
}

// GetUserFromContext extracts the current user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	current, ok := ctx.Value(CurrentUserContextKey).(*user.User)
	return current, ok
}

// extractBearerToken pulls the token out of the Authorization header
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
