package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api/metrics"
	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
)

// Identity derives the request identity from the gateway headers and stores
// it in the request context. The identity is immutable and scoped to the
// request context, so it vanishes on every exit path without explicit
// teardown. Requests without identity pass through unauthenticated; each
// handler decides what its operation requires.
func Identity(trail audit.Recorder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := auth.FromHeaders(c.Request().Header)
			if id == nil {
				return next(c)
			}

			if id.IsSystem() {
				// The internal-flag shortcut bypasses per-user checks;
				// always leave a trace of it.
				metrics.SystemIdentityTotal.Inc()
				trail.Record(audit.Entry{
					Action:  audit.ActionSystemIdentity,
					ActorID: id.UserID,
					Detail:  c.Request().Method + " " + c.Request().URL.Path,
				})
				log.Info().
					Str("path", c.Request().URL.Path).
					Str("remote", c.RealIP()).
					Msg("system identity injected for internal request")
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}
