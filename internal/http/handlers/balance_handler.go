package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/services"
	"dormstore/internal/validate"
)

type BalanceHandler struct {
	Balance *services.BalanceService
}

// Get lazily opens the ledger on first read.
func (h *BalanceHandler) Get(c *fiber.Ctx) error {
	b, err := h.Balance.Get(currentUser(c).ID)
	if err != nil {
		return respondError(c, "balance.get", err, "Failed to load balance")
	}
	return c.JSON(b)
}

func (h *BalanceHandler) Add(c *fiber.Ctx) error {
	var body struct {
		Amount json.Number `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid amount")
	}
	amount, ok := validate.Amount(body.Amount.String())
	if !ok {
		return badRequest(c, "Invalid amount")
	}
	b, err := h.Balance.Credit(currentUser(c).ID, amount)
	if err != nil {
		return respondError(c, "balance.add", err, "Failed to add funds")
	}
	applog.Audit(c, "balance.credit", map[string]any{"amount": amount.StringFixed(2), "balance": b.Balance.StringFixed(2)})
	return c.JSON(fiber.Map{
		"balance":    b.Balance,
		"totalSpent": b.TotalSpent,
		"message":    "Added $" + amount.StringFixed(2) + " to your balance",
	})
}

func (h *BalanceHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txns, err := h.Balance.History(currentUser(c).ID, limit)
	if err != nil {
		return respondError(c, "balance.history", err, "Failed to load balance history")
	}
	if txns == nil {
		txns = []domain.BalanceTxn{}
	}
	return c.JSON(fiber.Map{"transactions": txns})
}
