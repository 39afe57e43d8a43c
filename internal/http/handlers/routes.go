package handlers

import "github.com/gofiber/fiber/v2"

// Mount registers every route on app.
func Mount(app *fiber.App, d *Deps) {
	app.Use(Identify(d.Auth))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	app.Post("/api/auth/login", d.AuthHandler.Login)
	app.Post("/api/auth/logout", d.AuthHandler.Logout)

	app.Get("/api/products/:id", d.CatalogHandler.Product)
	app.Get("/api/packages/:id", d.CatalogHandler.Package)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Put("/cart/:id", d.CartHandler.Update)
	app.Delete("/cart/:id", d.CartHandler.Remove)
	app.Delete("/cart", d.CartHandler.Clear)

	user := app.Group("/api/user", RequireUser())
	user.Get("/balance", d.BalanceHandler.Get)
	user.Post("/balance/add", d.BalanceHandler.Add)
	user.Get("/balance/history", d.BalanceHandler.History)

	orders := app.Group("/api/orders", RequireUser())
	orders.Post("/", d.OrderHandler.Create)
	orders.Get("/", d.OrderHandler.List)
	orders.Get("/:orderNumber", d.OrderHandler.Show)
	app.Get("/orders/:orderNumber/receipt", RequireUser(), d.OrderHandler.Receipt)

	admin := app.Group("/api/admin", RequireAdmin())
	admin.Put("/packages/:id/stock", d.AdminHandler.SetPackageStock)
	admin.Put("/products/:id/stock", d.AdminHandler.SetProductStock)
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Get("/orders", d.AdminHandler.ListOrders)
	admin.Put("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/users", d.AdminHandler.UsersList)
}
