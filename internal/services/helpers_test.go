package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dormstore/internal/domain"
	"dormstore/internal/repos"
	"dormstore/internal/services"
)

// store bundles the services over one seeded in-memory database.
type store struct {
	db       *sqlx.DB
	prods    *repos.ProductRepo
	pkgs     *repos.PackageRepo
	carts    *repos.CartRepo
	orders   *repos.OrderRepo
	balances *repos.BalanceRepo

	catalog  *services.CatalogService
	inv      *services.InventoryService
	cart     *services.CartService
	balance  *services.BalanceService
	checkout *services.CheckoutService
	history  *services.OrderService
}

var testPricing = services.Pricing{
	TaxRate:         dec("0.13"),
	ShippingFlat:    dec("9.99"),
	FreeShippingMin: dec("100.00"),
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(t *testing.T) *store {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := &store{
		db:       db,
		prods:    repos.NewProductRepo(db),
		pkgs:     repos.NewPackageRepo(db),
		carts:    repos.NewCartRepo(db),
		orders:   repos.NewOrderRepo(db),
		balances: repos.NewBalanceRepo(db),
	}
	s.catalog = services.NewCatalogService(s.prods, s.pkgs)
	s.inv = services.NewInventoryService(db, s.prods, s.pkgs)
	s.cart = services.NewCartService(db, s.carts, s.catalog, s.inv)
	s.balance = services.NewBalanceService(db, s.balances, dec("1000.00"), dec("10000.00"))
	s.checkout = services.NewCheckoutService(db, s.carts, s.prods, s.pkgs, s.orders, s.balances, testPricing, dec("1000.00"))
	s.history = services.NewOrderService(s.orders)
	return s
}

func (s *store) addProduct(t *testing.T, scope domain.CartScope, id string, qty int) domain.CartLine {
	t.Helper()
	line, _, err := s.cart.Add(scope, services.AddRequest{ProductID: id, Quantity: qty})
	require.NoError(t, err)
	return line
}

func (s *store) addPackage(t *testing.T, scope domain.CartScope, id string, qty int) domain.CartLine {
	t.Helper()
	line, _, err := s.cart.Add(scope, services.AddRequest{PackageID: id, Quantity: qty})
	require.NoError(t, err)
	return line
}

func (s *store) productStock(t *testing.T, id string) int {
	t.Helper()
	p, err := s.prods.Get(id)
	require.NoError(t, err)
	return p.Stock
}

func (s *store) packageStock(t *testing.T, id string) int {
	t.Helper()
	p, err := s.pkgs.Get(id)
	require.NoError(t, err)
	return p.Stock
}

func (s *store) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func validCheckout() services.CheckoutRequest {
	return services.CheckoutRequest{
		Email:      "alice@dormstore.test",
		FirstName:  "Alice",
		LastName:   "Nguyen",
		Address:    "12 College Ave",
		City:       "Toronto",
		Province:   "ON",
		PostalCode: "m5s 1a1",
		Country:    "CA",
	}
}

func strp(s string) *string { return &s }
