package handlers

import (
	"github.com/jmoiron/sqlx"

	"dormstore/internal/config"
	"dormstore/internal/repos"
	"dormstore/internal/services"
)

type Deps struct {
	Auth           *services.AuthService
	AuthHandler    *AuthHandler
	CatalogHandler *CatalogHandler
	CartHandler    *CartHandler
	BalanceHandler *BalanceHandler
	OrderHandler   *OrderHandler
	AdminHandler   *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	prodRepo := repos.NewProductRepo(db)
	pkgRepo := repos.NewPackageRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	balRepo := repos.NewBalanceRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, pkgRepo)
	invSvc := services.NewInventoryService(db, prodRepo, pkgRepo)
	cartSvc := services.NewCartService(db, cartRepo, catalogSvc, invSvc)
	balSvc := services.NewBalanceService(db, balRepo, cfg.StartingBalance, cfg.MaxTopUp)
	orderSvc := services.NewOrderService(orderRepo)
	pricing := services.Pricing{
		TaxRate:         cfg.TaxRate,
		ShippingFlat:    cfg.ShippingFlat,
		FreeShippingMin: cfg.FreeShippingMin,
	}
	checkoutSvc := services.NewCheckoutService(db, cartRepo, prodRepo, pkgRepo, orderRepo, balRepo, pricing, cfg.StartingBalance)

	return &Deps{
		Auth:           auth,
		AuthHandler:    &AuthHandler{Auth: auth, Cart: cartSvc},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc, Inv: invSvc},
		CartHandler:    &CartHandler{Cart: cartSvc},
		BalanceHandler: &BalanceHandler{Balance: balSvc},
		OrderHandler:   &OrderHandler{Checkout: checkoutSvc, Orders: orderSvc},
		AdminHandler:   &AdminHandler{Inv: invSvc, Orders: orderSvc, Users: userRepo},
	}
}
