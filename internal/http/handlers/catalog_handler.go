package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dormstore/internal/domain"
	"dormstore/internal/services"
	"dormstore/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

// GET /api/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	p, err := h.Catalog.Product(id)
	if err == nil && !p.Active {
		err = &services.NotFoundError{What: "product"}
	}
	if err != nil {
		return respondError(c, "catalog.product", err, "Failed to load product")
	}
	return c.JSON(fiber.Map{"product": p, "sizes": nonNil(p.Sizes()), "colors": nonNil(p.Colors())})
}

// GET /api/packages/:id reports the package with its components and live stock.
func (h *CatalogHandler) Package(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid package id")
	}
	pkg, err := h.Catalog.Package(id)
	if err == nil && !pkg.Active {
		err = &services.NotFoundError{What: "package"}
	}
	if err != nil {
		return respondError(c, "catalog.package", err, "Failed to load package")
	}
	items, err := h.Catalog.PackageItems(id)
	if err != nil {
		return respondError(c, "catalog.package", err, "Failed to load package")
	}
	if items == nil {
		items = []domain.PackageItem{}
	}
	avail, err := h.Inv.AvailablePackageStock(pkg)
	if err != nil {
		return respondError(c, "catalog.package", err, "Failed to load package")
	}
	return c.JSON(fiber.Map{"package": pkg, "items": items, "available": avail})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
