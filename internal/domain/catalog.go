package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// API clients expect money as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Active      bool            `db:"active" json:"active"`
	SizesJSON   string          `db:"sizes_json" json:"-"`
	ColorsJSON  string          `db:"colors_json" json:"-"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

// Sizes returns the free-text size options; malformed data yields none.
func (p Product) Sizes() []string { return textList(p.SizesJSON) }

// Colors returns the free-text color options; malformed data yields none.
func (p Product) Colors() []string { return textList(p.ColorsJSON) }

func textList(raw string) []string {
	var out []string
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

// Package is a bundle of products sold as one unit. Stock is derived from
// its PackageItems unless it has none, in which case an admin sets it.
type Package struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

type PackageItem struct {
	PackageID string `db:"package_id" json:"package_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// PackageStock reports the stored stock of one package after a recompute.
type PackageStock struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}
