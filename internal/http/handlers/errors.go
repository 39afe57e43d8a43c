package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "dormstore/internal/log"
	"dormstore/internal/services"
)

// GenericError is the only text a client sees for unexpected failures.
const GenericError = "Something went wrong. Please try again."

// respondError maps service errors onto status codes and {error} bodies.
// fallback is the message used for storage failures.
func respondError(c *fiber.Ctx, action string, err error, fallback string) error {
	var (
		ve    *services.ValidationError
		nf    *services.NotFoundError
		funds *services.InsufficientFundsError
		stock *services.InsufficientStockError
		inc   *services.InconsistentPackageError
	)
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "fields": ve.Fields, "msg": ve.Msg})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Msg})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": capitalize(nf.Error())})
	case errors.As(err, &funds):
		applog.Info(c, action+".insufficient_funds", map[string]any{"balance": funds.Balance, "required": funds.Required})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "Insufficient balance",
			"balance":   funds.Balance,
			"required":  funds.Required,
			"shortfall": funds.Shortfall,
		})
	case errors.As(err, &stock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "Insufficient stock for " + stock.Name,
			"available": stock.Available,
			"requested": stock.Requested,
		})
	case errors.As(err, &inc):
		applog.Warn(c, action+".inconsistent", err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Package components are inconsistent; contact an administrator"})
	}
	applog.Error(c, action+".fail", err, nil)
	if fallback == "" {
		fallback = GenericError
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

// ErrorHandler is the app-level fiber error handler: it keeps fiber's own
// client errors (404 route, 413 body) and hides everything else.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": GenericError})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
