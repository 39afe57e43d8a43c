package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
	"dormstore/internal/services"
	"dormstore/internal/validate"
)

type AdminHandler struct {
	Inv    *services.InventoryService
	Orders *services.OrderService
	Users  *repos.UserRepo
}

type stockBody struct {
	Stock *int `json:"stock"`
}

// PUT /api/admin/packages/:id/stock
func (h *AdminHandler) SetPackageStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid package id")
	}
	var body stockBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	if body.Stock != nil && !validate.Stock(*body.Stock) {
		return badRequest(c, "Stock must be zero or more")
	}
	ps, err := h.Inv.SetPackageStock(id, body.Stock)
	if err != nil {
		return respondError(c, "admin.package.stock", err, "Failed to update package stock")
	}
	applog.Audit(c, "admin.package.stock", map[string]any{"package": ps.ID, "stock": ps.Stock, "manual": body.Stock != nil})
	return c.JSON(ps)
}

// PUT /api/admin/products/:id/stock
func (h *AdminHandler) SetProductStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	var body stockBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.Stock == nil || !validate.Stock(*body.Stock) {
		return badRequest(c, "Stock must be zero or more")
	}
	pkgs, err := h.Inv.SetProductStock(id, *body.Stock)
	if err != nil {
		return respondError(c, "admin.product.stock", err, "Failed to update product stock")
	}
	if pkgs == nil {
		pkgs = []domain.PackageStock{}
	}
	applog.Audit(c, "admin.product.stock", map[string]any{"product": id, "stock": *body.Stock, "packages": pkgs})
	return c.JSON(fiber.Map{"id": id, "stock": *body.Stock, "packages": pkgs})
}

// DELETE /api/admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	if err := h.Inv.DeleteProduct(id); err != nil {
		return respondError(c, "admin.product.delete", err, "Failed to delete product")
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product": id})
	return c.JSON(fiber.Map{"message": "Product deleted", "id": id})
}

// GET /api/admin/orders
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	ords, err := h.Orders.Latest(limit)
	if err != nil {
		return respondError(c, "admin.orders.list", err, "Failed to load orders")
	}
	if ords == nil {
		ords = []domain.Order{}
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// PUT /api/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid order id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return badRequest(c, "Missing status")
	}
	o, err := h.Orders.UpdateStatus(int64(id), body.Status)
	if err != nil {
		return respondError(c, "admin.orders.update", err, "Failed to update order")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": o.ID, "status": o.OrderStatus})
	return c.JSON(fiber.Map{"order": o})
}

// GET /api/admin/users lists shopper accounts.
func (h *AdminHandler) UsersList(c *fiber.Ctx) error {
	users, err := h.Users.Customers()
	if err != nil {
		return respondError(c, "admin.users.list", err, "Failed to load users")
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(fiber.Map{"users": users})
}
