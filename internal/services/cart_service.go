package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"dormstore/internal/domain"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
)

type CartService struct {
	DB      *sqlx.DB
	Carts   *repos.CartRepo
	Catalog *CatalogService
	Inv     *InventoryService
}

func NewCartService(db *sqlx.DB, carts *repos.CartRepo, catalog *CatalogService, inv *InventoryService) *CartService {
	return &CartService{DB: db, Carts: carts, Catalog: catalog, Inv: inv}
}

// AddRequest names exactly one of ProductID or PackageID.
type AddRequest struct {
	ProductID     string
	PackageID     string
	Quantity      int
	SelectedSize  *string
	SelectedColor *string
}

const (
	AddStatusAdded   = "added"
	AddStatusUpdated = "updated"
)

const (
	reasonProductGone = "Product no longer available."
	reasonPackageGone = "Package no longer available."
	reasonOutOfStock  = "Out of stock."
)

// Reconcile loads the cart and checks every line against the catalog.
// Missing items and sold-out products are removed; quantities above stock are
// clamped. Those fixes are written back before returning. Any storage failure
// yields an empty view: the cart page must always render.
func (s *CartService) Reconcile(scope domain.CartScope) domain.CartView {
	view, err := s.reconcile(scope)
	if err != nil {
		applog.Error(nil, "cart.reconcile.fail", err, map[string]any{"owner": scope.Key()})
		return domain.EmptyCartView()
	}
	return view
}

func (s *CartService) reconcile(scope domain.CartScope) (domain.CartView, error) {
	key := scope.Key()
	lines, err := s.Carts.Lines(key)
	if err != nil {
		return domain.CartView{}, err
	}
	view := domain.EmptyCartView()
	for _, l := range lines {
		item, removed, err := s.reconcileLine(key, l)
		if err != nil {
			return domain.CartView{}, err
		}
		if removed != nil {
			view.Removed = append(view.Removed, *removed)
		}
		if item != nil {
			view.Items = append(view.Items, *item)
			view.Subtotal = view.Subtotal.Add(item.Subtotal)
		}
	}
	return view, nil
}

// reconcileLine returns the surviving item (nil if dropped) and the removal or
// adjustment notice (nil if the line was fine).
func (s *CartService) reconcileLine(key string, l domain.CartLine) (*domain.CartItemView, *domain.RemovedItem, error) {
	if l.IsPackage() {
		pkg, err := s.Catalog.Package(*l.PackageID)
		var nf *NotFoundError
		if errors.As(err, &nf) || (err == nil && !pkg.Active) {
			if err := s.Carts.Delete(key, l.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, nil, err
			}
			return nil, &domain.RemovedItem{Name: nameOr(l.ItemName, pkg.Name, *l.PackageID), Reason: reasonPackageGone}, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return itemView(l, "package", pkg.Name, pkg.Price, pkg.Stock), nil, nil
	}

	p, err := s.Catalog.Product(*l.ProductID)
	var nf *NotFoundError
	if errors.As(err, &nf) || (err == nil && !p.Active) {
		if err := s.Carts.Delete(key, l.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, &domain.RemovedItem{Name: nameOr(l.ItemName, p.Name, *l.ProductID), Reason: reasonProductGone}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if p.Stock == 0 {
		if err := s.Carts.Delete(key, l.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, &domain.RemovedItem{Name: p.Name, Reason: reasonOutOfStock}, nil
	}
	if l.Quantity > p.Stock {
		if err := s.Carts.SetQuantity(key, l.ID, p.Stock); err != nil {
			return nil, nil, err
		}
		l.Quantity = p.Stock
		return itemView(l, "product", p.Name, p.Price, p.Stock),
			&domain.RemovedItem{Name: p.Name, Reason: fmt.Sprintf("Quantity adjusted to %d.", p.Stock)}, nil
	}
	return itemView(l, "product", p.Name, p.Price, p.Stock), nil, nil
}

func itemView(l domain.CartLine, kind, name string, price decimal.Decimal, stock int) *domain.CartItemView {
	return &domain.CartItemView{
		CartLine: l,
		Kind:     kind,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Subtotal: price.Mul(decimal.NewFromInt(int64(l.Quantity))),
	}
}

func nameOr(names ...string) string {
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			return n
		}
	}
	return ""
}

// Add puts an item in the cart, merging into an existing line with the same
// product and variant (or the same package). It reports whether a new line
// was created or an existing one grew.
func (s *CartService) Add(scope domain.CartScope, req AddRequest) (domain.CartLine, string, error) {
	hasProduct := strings.TrimSpace(req.ProductID) != ""
	hasPackage := strings.TrimSpace(req.PackageID) != ""
	if hasProduct == hasPackage {
		return domain.CartLine{}, "", invalid("exactly one of product_id or package_id is required")
	}
	if req.Quantity < 1 {
		return domain.CartLine{}, "", invalid("quantity must be at least 1")
	}

	line := domain.CartLine{OwnerKey: scope.Key(), Quantity: req.Quantity}
	if hasProduct {
		p, err := s.Catalog.Product(req.ProductID)
		if err == nil && !p.Active {
			err = &NotFoundError{What: "product"}
		}
		if err != nil {
			return domain.CartLine{}, "", err
		}
		line.ProductID = &p.ID
		line.SelectedSize = trimmed(req.SelectedSize)
		line.SelectedColor = trimmed(req.SelectedColor)
		if !offered(p.Sizes(), line.SelectedSize) {
			return domain.CartLine{}, "", invalid("size %q is not offered for %s", *line.SelectedSize, p.Name)
		}
		if !offered(p.Colors(), line.SelectedColor) {
			return domain.CartLine{}, "", invalid("color %q is not offered for %s", *line.SelectedColor, p.Name)
		}
		line.VariantKey = domain.VariantKey(line.SelectedSize, line.SelectedColor)
		line.ItemName = p.Name
		line.PriceAtAdd = p.Price
	} else {
		pkg, err := s.Catalog.Package(req.PackageID)
		if err == nil && !pkg.Active {
			err = &NotFoundError{What: "package"}
		}
		if err != nil {
			return domain.CartLine{}, "", err
		}
		avail, err := s.Inv.AvailablePackageStock(pkg)
		if err != nil {
			return domain.CartLine{}, "", err
		}
		if req.Quantity > avail {
			return domain.CartLine{}, "", &InsufficientStockError{Name: pkg.Name, Available: avail, Requested: req.Quantity}
		}
		line.PackageID = &pkg.ID
		line.VariantKey = domain.VariantKey(nil, nil)
		line.ItemName = pkg.Name
		line.PriceAtAdd = pkg.Price
	}

	return s.merge(s.Carts, line)
}

// merge inserts line or, when a line with the same identity exists, adds its quantity.
func (s *CartService) merge(carts *repos.CartRepo, line domain.CartLine) (domain.CartLine, string, error) {
	existing, err := findSame(carts, line)
	switch {
	case err == nil:
		if err := carts.AddQuantity(existing.ID, line.Quantity); err != nil {
			return domain.CartLine{}, "", storage("merge cart line", err)
		}
		updated, err := carts.Line(line.OwnerKey, existing.ID)
		if err != nil {
			return domain.CartLine{}, "", storage("load cart line", err)
		}
		return updated, AddStatusUpdated, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.CartLine{}, "", storage("find cart line", err)
	}

	id, err := carts.Insert(line)
	if repos.IsUniqueViolation(err) {
		// lost a race with a concurrent add for the same identity
		return s.merge(carts, line)
	}
	if err != nil {
		return domain.CartLine{}, "", storage("insert cart line", err)
	}
	created, err := carts.Line(line.OwnerKey, id)
	if err != nil {
		return domain.CartLine{}, "", storage("load cart line", err)
	}
	return created, AddStatusAdded, nil
}

func findSame(carts *repos.CartRepo, line domain.CartLine) (domain.CartLine, error) {
	if line.PackageID != nil {
		return carts.FindPackageLine(line.OwnerKey, *line.PackageID)
	}
	return carts.FindProductLine(line.OwnerKey, *line.ProductID, line.VariantKey)
}

// offered reports whether choice is one of options. Products without
// options accept any free-text choice.
func offered(options []string, choice *string) bool {
	if choice == nil || len(options) == 0 {
		return true
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), *choice) {
			return true
		}
	}
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UpdateQuantity sets the quantity of a line owned by scope.
func (s *CartService) UpdateQuantity(scope domain.CartScope, id int64, qty int) (domain.CartLine, error) {
	if qty < 1 {
		return domain.CartLine{}, invalid("quantity must be at least 1")
	}
	if err := s.Carts.SetQuantity(scope.Key(), id, qty); err != nil {
		return domain.CartLine{}, lookup("cart item", err)
	}
	l, err := s.Carts.Line(scope.Key(), id)
	if err != nil {
		return domain.CartLine{}, lookup("cart item", err)
	}
	return l, nil
}

// Remove deletes one line owned by scope and returns it.
func (s *CartService) Remove(scope domain.CartScope, id int64) (domain.CartLine, error) {
	l, err := s.Carts.Line(scope.Key(), id)
	if err != nil {
		return domain.CartLine{}, lookup("cart item", err)
	}
	if err := s.Carts.Delete(scope.Key(), id); err != nil {
		return domain.CartLine{}, lookup("cart item", err)
	}
	return l, nil
}

// Clear empties the cart and returns what was removed.
func (s *CartService) Clear(scope domain.CartScope) ([]domain.CartLine, error) {
	lines, err := s.Carts.Lines(scope.Key())
	if err != nil {
		return nil, storage("load cart", err)
	}
	if _, err := s.Carts.Clear(scope.Key()); err != nil {
		return nil, storage("clear cart", err)
	}
	return lines, nil
}

// MergeGuest moves a guest's lines into the user's cart with the same
// merge-on-duplicate rule as Add, then drops the guest lines.
func (s *CartService) MergeGuest(guestToken, userID string) (int, error) {
	if guestToken == "" || userID == "" {
		return 0, nil
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		return 0, storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	carts := s.Carts.WithTx(tx)

	guest := domain.GuestScope(guestToken).Key()
	lines, err := carts.Lines(guest)
	if err != nil {
		return 0, storage("load guest cart", err)
	}
	if len(lines) == 0 {
		return 0, nil
	}
	owner := domain.UserScope(userID).Key()
	for _, l := range lines {
		l.OwnerKey = owner
		if _, _, err := s.merge(carts, l); err != nil {
			return 0, err
		}
	}
	if _, err := carts.Clear(guest); err != nil {
		return 0, storage("clear guest cart", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storage("commit", err)
	}
	return len(lines), nil
}
