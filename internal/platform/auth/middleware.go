package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionState tracks the lifecycle of a request's session.
type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StateAuthenticated SessionState = "authenticated"
	StateExpired       SessionState = "expired"
)

// Session is the per-request authentication state. It replaces ambient
// global auth state: every handler reads it from the request context.
type Session struct {
	State     SessionState
	UserID    uuid.UUID
	Role      string
	PatientID uuid.UUID // Nil for admin users
}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the request session. An absent session is
// reported as anonymous.
func SessionFromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey).(Session); ok {
		return s
	}
	return Session{State: StateAnonymous}
}

// BearerAuth validates the Authorization bearer token on every request and
// populates the request context with an authenticated session. Expired
// tokens produce 401 regardless of which endpoint was hit; the client's
// global policy is to clear its stored token and re-login.
func BearerAuth(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			session := Session{
				State:  StateAuthenticated,
				UserID: userID,
				Role:   claims.Role,
			}
			if claims.PatientID != "" {
				pid, err := uuid.Parse(claims.PatientID)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token patient id")
				}
				session.PatientID = pid
			}

			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	return SessionFromContext(ctx).UserID
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) string {
	return SessionFromContext(ctx).Role
}

// PatientIDFromContext returns the patient profile id bound to the session,
// or uuid.Nil for admins and anonymous requests.
func PatientIDFromContext(ctx context.Context) uuid.UUID {
	return SessionFromContext(ctx).PatientID
}
