package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/logging"
)

// TokenAuthenticator resolves a bearer token into a principal.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (application.Principal, error)
}

// Authenticate rejects requests without a verifiable bearer token and stores the
// resolved principal in the request context.
func Authenticate(authenticator TokenAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errNoToken)
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, application.ErrUnauthenticated) {
					responder.writeError(r.Context(), w, http.StatusUnauthorized, errInvalidToken)
					return
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "token verification failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
				return
			}

			ctx := logging.WithAttrs(r.Context(), "principal_id", principal.ID, "role", string(principal.Role))
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

// RequireRoles admits only principals holding one of roles. It must run after Authenticate.
func RequireRoles(logger *slog.Logger, roles ...application.Role) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	allowed := make(map[application.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errNoToken)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				responder.writeError(r.Context(), w, http.StatusForbidden, errForbiddenRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request scoped logger keyed by the chi request id.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", responseStatus(ww),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

func responseStatus(ww middleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

func extractTokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
