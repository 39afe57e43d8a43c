package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/services"
)

type OrderHandler struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
}

// checkoutBody mirrors the checkout form. Totals are what the client showed
// the shopper; the server recomputes and charges its own.
type checkoutBody struct {
	Email             string           `json:"email"`
	FirstName         string           `json:"firstName"`
	LastName          string           `json:"lastName"`
	Phone             string           `json:"phone"`
	Address           string           `json:"address"`
	City              string           `json:"city"`
	Province          string           `json:"province"`
	PostalCode        string           `json:"postalCode"`
	Country           string           `json:"country"`
	BillingAddress    string           `json:"billingAddress"`
	BillingCity       string           `json:"billingCity"`
	BillingProvince   string           `json:"billingProvince"`
	BillingPostalCode string           `json:"billingPostalCode"`
	Notes             string           `json:"notes"`
	Subtotal          *decimal.Decimal `json:"subtotal"`
	Tax               *decimal.Decimal `json:"tax"`
	Shipping          *decimal.Decimal `json:"shipping"`
	Total             *decimal.Decimal `json:"total"`
}

func (b checkoutBody) request() services.CheckoutRequest {
	req := services.CheckoutRequest{
		Email: b.Email, FirstName: b.FirstName, LastName: b.LastName, Phone: b.Phone,
		Address: b.Address, City: b.City, Province: b.Province, PostalCode: b.PostalCode, Country: b.Country,
		BillingAddress: b.BillingAddress, BillingCity: b.BillingCity,
		BillingProvince: b.BillingProvince, BillingPostalCode: b.BillingPostalCode,
		Notes: b.Notes,
	}
	if b.Total != nil {
		req.ClientTotals = &services.Totals{
			Subtotal: orZero(b.Subtotal),
			Tax:      orZero(b.Tax),
			Shipping: orZero(b.Shipping),
			Total:    *b.Total,
		}
	}
	return req
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var body checkoutBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req := body.request()

	res, err := h.Checkout.Place(u.ID, req)
	if err != nil {
		return respondError(c, "order.place", err, "Failed to create order")
	}

	fields := map[string]any{
		"order_id":     res.Order.ID,
		"order_number": res.Order.OrderNumber,
		"server_total": res.Order.Total.StringFixed(2),
		"mismatch":     res.Mismatch,
	}
	if req.ClientTotals != nil {
		fields["client_total"] = req.ClientTotals.Total.StringFixed(2)
	}
	applog.Audit(c, "order.place", fields)
	if res.Mismatch {
		applog.Security(c, "order.totals.mismatch", fields)
	}
	if len(res.Packages) > 0 {
		applog.Info(c, "inventory.packages.recomputed", map[string]any{"packages": res.Packages})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   res.Order,
		"balance": fiber.Map{
			"remaining":  res.Balance.Balance,
			"totalSpent": res.Balance.TotalSpent,
		},
	})
}

// List returns the signed-in user's orders, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.History(currentUser(c).ID)
	if err != nil {
		return respondError(c, "orders.history", err, "Failed to load orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) Show(c *fiber.Ctx) error {
	d, err := h.Orders.ForViewer(c.Params("orderNumber"), currentUser(c))
	if err != nil {
		var nf *services.NotFoundError
		if errors.As(err, &nf) {
			applog.Security(c, "access.denied.order", map[string]any{"order_number": c.Params("orderNumber")})
		}
		return respondError(c, "orders.show", err, "Failed to load order")
	}
	return c.JSON(fiber.Map{"order": d})
}

// Receipt renders a printable HTML receipt.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	d, err := h.Orders.ForViewer(c.Params("orderNumber"), currentUser(c))
	if err != nil {
		return respondError(c, "orders.receipt", err, "Failed to load order")
	}
	return c.Render("receipt", fiber.Map{"Order": d})
}
