package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartScope identifies whose cart is addressed: a signed-in user or a guest
// holding a server-issued token.
type CartScope struct {
	UserID     string
	GuestToken string
}

func UserScope(userID string) CartScope { return CartScope{UserID: userID} }

func GuestScope(token string) CartScope { return CartScope{GuestToken: token} }

// Key is the value stored in cart_items.owner_key.
func (s CartScope) Key() string {
	if s.UserID != "" {
		return "user:" + s.UserID
	}
	return "guest:" + s.GuestToken
}

// VariantKey folds the optional size/color selection into one canonical
// string so line identity is a single equality match.
func VariantKey(size, color *string) string {
	return "size=" + norm(size) + "|color=" + norm(color)
}

func norm(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}

// CartLine references exactly one of a product or a package.
type CartLine struct {
	ID            int64           `db:"id" json:"id"`
	OwnerKey      string          `db:"owner_key" json:"-"`
	ProductID     *string         `db:"product_id" json:"product_id"`
	PackageID     *string         `db:"package_id" json:"package_id"`
	Quantity      int             `db:"quantity" json:"quantity"`
	SelectedSize  *string         `db:"selected_size" json:"selected_size"`
	SelectedColor *string         `db:"selected_color" json:"selected_color"`
	VariantKey    string          `db:"variant_key" json:"-"`
	ItemName      string          `db:"item_name" json:"-"`
	PriceAtAdd    decimal.Decimal `db:"price_at_add" json:"-"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	UpdatedAt     string          `db:"updated_at" json:"updated_at"`
}

func (l CartLine) IsPackage() bool { return l.PackageID != nil }

// CartItemView is a reconciled cart line enriched with live catalog data.
type CartItemView struct {
	CartLine
	Kind     string          `json:"kind"` // product | package
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type RemovedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type CartView struct {
	Items    []CartItemView  `json:"cartItems"`
	Removed  []RemovedItem   `json:"removedItems"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// EmptyCartView is what cart display degrades to when storage fails.
func EmptyCartView() CartView {
	return CartView{Items: []CartItemView{}, Removed: []RemovedItem{}, Subtotal: decimal.Zero}
}
