package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/etsusei/NeteaseCloudMusicApi2/resolver"
)

const credentialsKey = "credentials"

// CookieContext computes each request's effective credential bundle once: the
// operator's VIP cookies as the baseline, overlaid with whatever cookies the
// caller sent. Handlers read the result with RequestCredentials.
func CookieContext(vip resolver.Credentials) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := resolver.ParseCookies(c.Get(fiber.HeaderCookie))
		c.Locals(credentialsKey, resolver.Merge(vip, caller))
		return c.Next()
	}
}

// RequestCredentials returns the merged cookie bundle for the request. An
// empty bundle is returned when CookieContext is not in the chain.
func RequestCredentials(c *fiber.Ctx) resolver.Credentials {
	if creds, ok := c.Locals(credentialsKey).(resolver.Credentials); ok {
		return creds
	}
	return resolver.Credentials{}
}
