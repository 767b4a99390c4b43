package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/auth"
)

// Authenticate validates the bearer access token and stores its claims on
// the request context. With roles given the caller must hold one of them.
func Authenticate(a *auth.Auth, roles ...string) web.Middleware {
	m := func(handler web.Handler) web.Handler {

		h := func(c *web.Context) error {

			// Expecting: Bearer <token>
			authStr := c.Request.Header.Get("authorization")

			parts := strings.Split(authStr, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				err := errors.New("expected authorization header format: Bearer <token>")
				return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
			}

			claims, err := a.ValidateToken(parts[1])
			if err != nil {
				return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
			}

			if len(roles) > 0 && !claims.Authorized(roles...) {
				return c.RespondError(web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusForbidden))
			}

			c.Ctx = context.WithValue(c.Ctx, auth.Key, claims)

			return handler(c)
		}

		return h
	}

	return m
}
