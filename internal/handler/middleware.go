package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/pastita/storefront-bfa-go/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionMiddleware resolves the session token and injects the live session
// into the request context. The token travels either as a Bearer header or,
// for clients that reserve Authorization for other uses, as X-Session-Token.
func SessionMiddleware(manager *service.SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Session-Token")
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					token = parts[1]
				}
			}
			if token == "" {
				logger.Warn("session: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "session token not provided")
				return
			}

			sess, err := manager.Resolve(r.Context(), token)
			if err != nil {
				logger.Warn("session: resolve failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the resolved session from context.
func SessionFromContext(ctx context.Context) *service.Session {
	v, _ := ctx.Value(sessionKey).(*service.Session)
	return v
}
