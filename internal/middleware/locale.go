package middleware

import (
	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/pkg/i18n"
)

// Locale resolves the :locale path parameter, or Accept-Language when the
// route has none, and stores it for message translation.
func Locale() web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(c *web.Context) error {
			locale := c.Param("locale")
			if locale == "" {
				locale = c.GetHeader("Accept-Language")
			}

			c.Ctx = i18n.WithLocale(c.Ctx, locale)

			return handler(c)
		}
	}
}
