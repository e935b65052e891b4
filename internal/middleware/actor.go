package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

const (
	actorIDKey    = "actorID"
	actorEmailKey = "actorEmail"

	HeaderActorID    = "X-Actor-ID"
	HeaderActorEmail = "X-Actor-Email"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Actor resolves the identity of the caller. With a verifier it requires a
// Bearer ID token; without one it trusts the X-Actor-ID and X-Actor-Email
// headers set by an upstream gateway.
func Actor(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if verifier == nil {
				id := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
				if id == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "X-Actor-ID header is missing")
				}
				c.Set(actorIDKey, id)
				c.Set(actorEmailKey, c.Request().Header.Get(HeaderActorEmail))
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}
			c.Set(actorIDKey, token.UID)
			if email, ok := token.Claims["email"].(string); ok {
				c.Set(actorEmailKey, email)
			}
			return next(c)
		}
	}
}

// ActorID returns the identity set by Actor, or "".
func ActorID(c echo.Context) string {
	id, _ := c.Get(actorIDKey).(string)
	return id
}

func ActorEmail(c echo.Context) string {
	email, _ := c.Get(actorEmailKey).(string)
	return email
}
