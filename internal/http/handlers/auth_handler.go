package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "dormstore/internal/log"
	"dormstore/internal/services"
	"dormstore/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	Cart *services.CartService
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a bearer token and folds the caller's guest cart into the
// user's cart.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	email, ok := validate.Email(body.Email)
	if !ok || !validate.Password(body.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": body.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	token, u, err := h.Auth.Login(email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "auth.login.fail", map[string]any{"email": email})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return respondError(c, "auth.login", err, "")
	}
	c.Locals("user_id", u.ID)

	merged := 0
	if guest := guestToken(c); guest != "" {
		merged, err = h.Cart.MergeGuest(guest, u.ID)
		if err != nil {
			// the login itself succeeded; the guest cart stays where it was
			applog.Warn(c, "cart.merge.fail", err, nil)
		}
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "merged_lines": merged})
	return c.JSON(fiber.Map{"token": token, "user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok := bearerToken(c)
	if tok == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}
	if err := h.Auth.Logout(tok); err != nil {
		return respondError(c, "auth.logout", err, "")
	}
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// guestToken returns the guest cart token a client presented, without issuing one.
func guestToken(c *fiber.Ctx) string {
	for _, v := range []string{c.Get("X-Guest-Token"), c.Cookies("sid")} {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	return ""
}
