package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"dormstore/internal/domain"
	"dormstore/internal/repos"
	"dormstore/internal/validate"
)

const orderNumberAttempts = 5

// Pricing turns a merchandise subtotal into order totals.
type Pricing struct {
	TaxRate         decimal.Decimal
	ShippingFlat    decimal.Decimal
	FreeShippingMin decimal.Decimal
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func (p Pricing) Totals(subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(p.TaxRate).Round(2)
	shipping := p.ShippingFlat
	if subtotal.IsZero() || (p.FreeShippingMin.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingMin)) {
		shipping = decimal.Zero
	}
	shipping = shipping.Round(2)
	return Totals{Subtotal: subtotal, Tax: tax, Shipping: shipping, Total: subtotal.Add(tax).Add(shipping)}
}

// CheckoutRequest carries the shipping and billing snapshot. ClientTotals is
// what the browser displayed; it is compared, never charged.
type CheckoutRequest struct {
	Email             string
	FirstName         string
	LastName          string
	Phone             string
	Address           string
	City              string
	Province          string
	PostalCode        string
	Country           string
	BillingAddress    string
	BillingCity       string
	BillingProvince   string
	BillingPostalCode string
	Notes             string
	ClientTotals      *Totals
}

type CheckoutResult struct {
	Order    domain.OrderDetail
	Balance  domain.UserBalance
	Packages []domain.PackageStock
	Mismatch bool
}

type CheckoutService struct {
	DB       *sqlx.DB
	Carts    *repos.CartRepo
	Prods    *repos.ProductRepo
	Pkgs     *repos.PackageRepo
	Orders   *repos.OrderRepo
	Balances *repos.BalanceRepo
	Pricing  Pricing
	Starting decimal.Decimal

	Now         func() time.Time
	OrderNumber func(time.Time) string
}

func NewCheckoutService(db *sqlx.DB, carts *repos.CartRepo, prods *repos.ProductRepo, pkgs *repos.PackageRepo,
	orders *repos.OrderRepo, balances *repos.BalanceRepo, pricing Pricing, starting decimal.Decimal) *CheckoutService {
	return &CheckoutService{
		DB: db, Carts: carts, Prods: prods, Pkgs: pkgs, Orders: orders, Balances: balances,
		Pricing: pricing, Starting: starting,
		Now: time.Now, OrderNumber: NewOrderNumber,
	}
}

// NewOrderNumber builds ORD-<UTC timestamp>-<8 hex chars>. The unique index on
// orders.order_number catches the rare collision.
func NewOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + t.UTC().Format("20060102150405") + "-" + suffix
}

func (r CheckoutRequest) validate() error {
	required := []struct{ name, val string }{
		{"email", r.Email}, {"firstName", r.FirstName}, {"lastName", r.LastName},
		{"address", r.Address}, {"city", r.City}, {"province", r.Province}, {"postalCode", r.PostalCode},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Msg: "Missing required fields: " + strings.Join(missing, ", "), Fields: missing}
	}
	if _, ok := validate.Email(r.Email); !ok {
		return &ValidationError{Msg: "invalid email", Fields: []string{"email"}}
	}
	if _, ok := validate.PostalCode(r.PostalCode); !ok {
		return &ValidationError{Msg: "invalid postal code", Fields: []string{"postalCode"}}
	}
	return nil
}

// pricedLine is a cart line priced against the live catalog.
type pricedLine struct {
	line  domain.CartLine
	name  string
	price decimal.Decimal
}

// Place converts the user's cart into an order paid from the prepaid balance.
// Balance row creation, the order and its lines, stock changes, the debit and
// clearing the cart commit together or not at all.
func (s *CheckoutService) Place(userID string, req CheckoutRequest) (CheckoutResult, error) {
	if userID == "" {
		return CheckoutResult{}, ErrUnauthorized
	}
	if err := req.validate(); err != nil {
		return CheckoutResult{}, err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return CheckoutResult{}, storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	carts := s.Carts.WithTx(tx)
	orders := s.Orders.WithTx(tx)
	balances := s.Balances.WithTx(tx)
	st := stockStore{prods: s.Prods.WithTx(tx), pkgs: s.Pkgs.WithTx(tx)}

	bal, err := ensureBalance(balances, userID, s.Starting)
	if err != nil {
		return CheckoutResult{}, err
	}

	owner := domain.UserScope(userID).Key()
	lines, err := carts.Lines(owner)
	if err != nil {
		return CheckoutResult{}, storage("load cart", err)
	}
	if len(lines) == 0 {
		return CheckoutResult{}, invalid("cart is empty")
	}
	priced, subtotal, err := priceLines(st, lines)
	if err != nil {
		return CheckoutResult{}, err
	}
	totals := s.Pricing.Totals(subtotal)

	if bal.Balance.LessThan(totals.Total) {
		return CheckoutResult{}, &InsufficientFundsError{
			Balance:   bal.Balance,
			Required:  totals.Total,
			Shortfall: totals.Total.Sub(bal.Balance),
		}
	}

	order := domain.Order{
		UserID:            userID,
		Email:             strings.TrimSpace(req.Email),
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Phone:             strings.TrimSpace(req.Phone),
		Address:           strings.TrimSpace(req.Address),
		City:              strings.TrimSpace(req.City),
		Province:          strings.TrimSpace(req.Province),
		PostalCode:        strings.ToUpper(strings.TrimSpace(req.PostalCode)),
		Country:           strings.TrimSpace(req.Country),
		BillingAddress:    orDefault(req.BillingAddress, req.Address),
		BillingCity:       orDefault(req.BillingCity, req.City),
		BillingProvince:   orDefault(req.BillingProvince, req.Province),
		BillingPostalCode: strings.ToUpper(orDefault(req.BillingPostalCode, req.PostalCode)),
		Notes:             strings.TrimSpace(req.Notes),
		Subtotal:          totals.Subtotal,
		Tax:               totals.Tax,
		Shipping:          totals.Shipping,
		Total:             totals.Total,
		OrderStatus:       domain.OrderPending,
		PaymentStatus:     domain.PaymentPaid,
		PaymentMethod:     domain.PaymentMethod,
	}
	order.ID, order.OrderNumber, err = s.insertOrder(orders, order)
	if err != nil {
		return CheckoutResult{}, err
	}

	touched, err := snapshotLines(orders, st, order.ID, priced)
	if err != nil {
		return CheckoutResult{}, err
	}
	var pkgStock []domain.PackageStock
	for _, pid := range touched {
		updated, err := st.recomputeForProduct(pid)
		if err != nil {
			return CheckoutResult{}, err
		}
		pkgStock = append(pkgStock, updated...)
	}

	bal, err = debit(balances, userID, totals.Total, &order.ID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if _, err := carts.Clear(owner); err != nil {
		return CheckoutResult{}, storage("clear cart", err)
	}

	stored, err := orders.Get(order.ID)
	if err != nil {
		return CheckoutResult{}, storage("load order", err)
	}
	detail, err := orders.Detail(stored)
	if err != nil {
		return CheckoutResult{}, storage("load order lines", err)
	}
	if err := tx.Commit(); err != nil {
		return CheckoutResult{}, storage("commit", err)
	}

	mismatch := req.ClientTotals != nil && !req.ClientTotals.Total.Round(2).Equal(totals.Total)
	return CheckoutResult{Order: detail, Balance: bal, Packages: pkgStock, Mismatch: mismatch}, nil
}

// insertOrder retries with a fresh order number when the generated one collides.
func (s *CheckoutService) insertOrder(orders *repos.OrderRepo, o domain.Order) (int64, string, error) {
	var lastErr error
	for i := 0; i < orderNumberAttempts; i++ {
		o.OrderNumber = s.OrderNumber(s.Now())
		id, err := orders.Create(o)
		if err == nil {
			return id, o.OrderNumber, nil
		}
		if !repos.IsUniqueViolation(err) {
			return 0, "", storage("insert order", err)
		}
		lastErr = err
	}
	return 0, "", storage("insert order", fmt.Errorf("order number collided %d times: %w", orderNumberAttempts, lastErr))
}

// priceLines prices every line from the live catalog and checks availability.
func priceLines(st stockStore, lines []domain.CartLine) ([]pricedLine, decimal.Decimal, error) {
	out := make([]pricedLine, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		var pl pricedLine
		if l.IsPackage() {
			pkg, err := st.pkgs.Get(*l.PackageID)
			if err != nil || !pkg.Active {
				if err != nil && !isNoRows(err) {
					return nil, decimal.Zero, storage("load package", err)
				}
				return nil, decimal.Zero, invalid("%s is no longer available", nameOr(l.ItemName, *l.PackageID))
			}
			avail, err := st.available(pkg)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if l.Quantity > avail {
				return nil, decimal.Zero, &InsufficientStockError{Name: pkg.Name, Available: avail, Requested: l.Quantity}
			}
			pl = pricedLine{line: l, name: pkg.Name, price: pkg.Price}
		} else {
			p, err := st.prods.Get(*l.ProductID)
			if err != nil || !p.Active {
				if err != nil && !isNoRows(err) {
					return nil, decimal.Zero, storage("load product", err)
				}
				return nil, decimal.Zero, invalid("%s is no longer available", nameOr(l.ItemName, *l.ProductID))
			}
			if l.Quantity > p.Stock {
				return nil, decimal.Zero, &InsufficientStockError{Name: p.Name, Available: p.Stock, Requested: l.Quantity}
			}
			pl = pricedLine{line: l, name: p.Name, price: p.Price}
		}
		subtotal = subtotal.Add(pl.price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		out = append(out, pl)
	}
	return out, subtotal, nil
}

// snapshotLines writes order lines and takes the sold units out of stock.
// It returns the product ids whose stock changed.
func snapshotLines(orders *repos.OrderRepo, st stockStore, orderID int64, priced []pricedLine) ([]string, error) {
	seen := map[string]bool{}
	var touched []string
	touch := func(id string) {
		if !seen[id] {
			seen[id] = true
			touched = append(touched, id)
		}
	}

	for _, pl := range priced {
		qty := pl.line.Quantity
		sub := pl.price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		if !pl.line.IsPackage() {
			pid := *pl.line.ProductID
			if err := orders.InsertItem(domain.OrderItem{
				OrderID: orderID, ProductID: pid, ProductName: pl.name, Price: pl.price,
				Quantity: qty, Subtotal: sub, SelectedSize: pl.line.SelectedSize, SelectedColor: pl.line.SelectedColor,
			}); err != nil {
				return nil, storage("insert order item", err)
			}
			if err := st.prods.DecrementStock(pid, qty); err != nil {
				return nil, stockErr(pl.name, qty, err, func() (int, error) {
					p, err := st.prods.Get(pid)
					return p.Stock, err
				})
			}
			touch(pid)
			continue
		}

		pkgID := *pl.line.PackageID
		if err := orders.InsertPackage(domain.OrderPackage{
			OrderID: orderID, PackageID: pkgID, PackageName: pl.name, Price: pl.price, Quantity: qty, Subtotal: sub,
		}); err != nil {
			return nil, storage("insert order package", err)
		}
		items, err := st.pkgs.Items(pkgID)
		if err != nil {
			return nil, storage("load package items", err)
		}
		if len(items) == 0 {
			if err := st.pkgs.DecrementStock(pkgID, qty); err != nil {
				return nil, stockErr(pl.name, qty, err, func() (int, error) {
					pkg, err := st.pkgs.Get(pkgID)
					return pkg.Stock, err
				})
			}
			continue
		}
		// earlier lines may have taken shared components
		avail, err := st.computeFromItems(pkgID, items)
		if err != nil {
			return nil, err
		}
		if qty > avail {
			return nil, &InsufficientStockError{Name: pl.name, Available: avail, Requested: qty}
		}
		for _, it := range items {
			if err := st.prods.DecrementStock(it.ProductID, qty*it.Quantity); err != nil {
				return nil, stockErr(pl.name, qty, err, func() (int, error) { return avail, nil })
			}
			touch(it.ProductID)
		}
	}
	return touched, nil
}

// stockErr maps a refused decrement onto InsufficientStockError, reporting
// what is left once earlier lines of the same order took their share.
func stockErr(name string, qty int, err error, remaining func() (int, error)) error {
	if !errors.Is(err, repos.ErrStockShort) {
		return storage("decrement stock", err)
	}
	short := &InsufficientStockError{Name: name, Requested: qty}
	if n, rerr := remaining(); rerr == nil {
		short.Available = n
	}
	return short
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return strings.TrimSpace(def)
}
