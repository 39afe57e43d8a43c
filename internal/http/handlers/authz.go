package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/services"
)

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Identify attaches the user behind a bearer token, if any. Requests without
// a valid token continue as guests.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return c.Next()
		}
		u, err := auth.CurrentUser(tok)
		if err != nil || u == nil {
			applog.Security(c, "auth.token.invalid", nil)
			return c.Next()
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser rejects requests without an authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}
		return c.Next()
	}
}

// ensureSID returns the guest token cookie, issuing one if the client has
// none or sent something that is not a uuid.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable behind TLS
		})
	}
	return sid
}

// cartScope picks the signed-in user's cart, else the guest cart named by the
// X-Guest-Token header or the sid cookie.
func cartScope(c *fiber.Ctx) domain.CartScope {
	if u := currentUser(c); u != nil {
		return domain.UserScope(u.ID)
	}
	if tok := c.Get("X-Guest-Token"); tok != "" {
		if _, err := uuid.Parse(tok); err == nil {
			return domain.GuestScope(tok)
		}
	}
	return domain.GuestScope(ensureSID(c))
}
