package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/services"
	"dormstore/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type addCartBody struct {
	ProductID     string  `json:"product_id"`
	PackageID     string  `json:"package_id"`
	Quantity      *int    `json:"quantity"`
	SelectedSize  *string `json:"selected_size"`
	SelectedColor *string `json:"selected_color"`
}

// View always answers 200; the reconciler degrades to an empty cart.
func (h *CartHandler) View(c *fiber.Ctx) error {
	view := h.Cart.Reconcile(cartScope(c))
	if len(view.Removed) > 0 {
		applog.Info(c, "cart.reconcile.removed", map[string]any{"removed": view.Removed})
	}
	return c.JSON(view)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	scope := cartScope(c)
	var body addCartBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}
	if !validate.Qty(qty) {
		return badRequest(c, "Quantity must be at least 1")
	}
	for _, id := range []string{body.ProductID, body.PackageID} {
		if id == "" {
			continue
		}
		if _, ok := validate.ID(id); !ok {
			return badRequest(c, "Invalid item id")
		}
	}

	line, status, err := h.Cart.Add(scope, services.AddRequest{
		ProductID:     body.ProductID,
		PackageID:     body.PackageID,
		Quantity:      qty,
		SelectedSize:  body.SelectedSize,
		SelectedColor: body.SelectedColor,
	})
	if err != nil {
		return respondError(c, "cart.add", err, "Failed to add item to cart")
	}
	applog.Info(c, "cart.add", map[string]any{"line": line.ID, "qty": qty, "status": status})
	if status == services.AddStatusAdded {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item added to cart", "cartItem": line})
	}
	return c.JSON(fiber.Map{"message": "Cart updated", "cartItem": line})
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	scope := cartScope(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid cart item id")
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.Quantity == nil || !validate.Qty(*body.Quantity) {
		return badRequest(c, "Quantity must be at least 1")
	}
	line, err := h.Cart.UpdateQuantity(scope, int64(id), *body.Quantity)
	if err != nil {
		return respondError(c, "cart.update", err, "Failed to update cart")
	}
	return c.JSON(fiber.Map{"cartItem": line})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	scope := cartScope(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid cart item id")
	}
	line, err := h.Cart.Remove(scope, int64(id))
	if err != nil {
		return respondError(c, "cart.remove", err, "Failed to remove item")
	}
	applog.Info(c, "cart.remove", map[string]any{"line": line.ID})
	return c.JSON(fiber.Map{"removedItem": line})
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	lines, err := h.Cart.Clear(cartScope(c))
	if err != nil {
		return respondError(c, "cart.clear", err, "Failed to clear cart")
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return c.JSON(fiber.Map{"removedItems": lines, "itemsRemoved": len(lines)})
}
