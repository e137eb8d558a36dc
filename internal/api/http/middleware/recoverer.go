package middleware

import (
	"log/slog"
	"net/http"
)

// Recoverer catches panics, logs them and hands the request to the given
// 500 handler so the client gets the error page instead of a blank reply.
func Recoverer(logger *slog.Logger, serverError http.HandlerFunc) func(http.Handler) http.Handler {
	const op = "api.http.middleware.Recoverer"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(
						"panic while handling request",
						slog.Group(op,
							slog.String("path", r.URL.Path),
							slog.Any("err", rec),
						),
					)

					serverError(w, r)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
