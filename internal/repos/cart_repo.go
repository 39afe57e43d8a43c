package repos

import (
	"github.com/jmoiron/sqlx"

	"dormstore/internal/domain"
)

type CartRepo struct{ q sqlx.Ext }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{q: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{q: tx} }

const cartCols = `
    id, owner_key, product_id, package_id, quantity, selected_size, selected_color,
    variant_key, item_name, price_at_add,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// Lines returns every line owned by ownerKey, oldest first.
func (r *CartRepo) Lines(ownerKey string) ([]domain.CartLine, error) {
	out := []domain.CartLine{}
	err := sqlx.Select(r.q, &out, `SELECT `+cartCols+` FROM cart_items WHERE owner_key = ? ORDER BY id`, ownerKey)
	return out, err
}

// Line returns sql.ErrNoRows when id does not exist or belongs to someone else.
func (r *CartRepo) Line(ownerKey string, id int64) (domain.CartLine, error) {
	var l domain.CartLine
	err := sqlx.Get(r.q, &l, `SELECT `+cartCols+` FROM cart_items WHERE owner_key = ? AND id = ?`, ownerKey, id)
	return l, err
}

func (r *CartRepo) FindProductLine(ownerKey, productID, variantKey string) (domain.CartLine, error) {
	var l domain.CartLine
	err := sqlx.Get(r.q, &l, `
		SELECT `+cartCols+` FROM cart_items
		WHERE owner_key = ? AND product_id = ? AND variant_key = ?
	`, ownerKey, productID, variantKey)
	return l, err
}

func (r *CartRepo) FindPackageLine(ownerKey, packageID string) (domain.CartLine, error) {
	var l domain.CartLine
	err := sqlx.Get(r.q, &l, `
		SELECT `+cartCols+` FROM cart_items
		WHERE owner_key = ? AND package_id = ?
	`, ownerKey, packageID)
	return l, err
}

// Insert stores a new line and returns its id.
func (r *CartRepo) Insert(l domain.CartLine) (int64, error) {
	res, err := r.q.Exec(`
		INSERT INTO cart_items
		  (owner_key, product_id, package_id, quantity, selected_size, selected_color,
		   variant_key, item_name, price_at_add, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, l.OwnerKey, nullable(l.ProductID), nullable(l.PackageID), l.Quantity,
		nullable(l.SelectedSize), nullable(l.SelectedColor), l.VariantKey, l.ItemName, l.PriceAtAdd.StringFixed(2))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddQuantity merges by more units into an existing line.
func (r *CartRepo) AddQuantity(id int64, by int) error {
	res, err := r.q.Exec(`
		UPDATE cart_items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, by, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetQuantity returns sql.ErrNoRows if the line is not owned by ownerKey.
func (r *CartRepo) SetQuantity(ownerKey string, id int64, qty int) error {
	res, err := r.q.Exec(`
		UPDATE cart_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE owner_key = ? AND id = ?
	`, qty, ownerKey, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *CartRepo) Delete(ownerKey string, id int64) error {
	res, err := r.q.Exec(`DELETE FROM cart_items WHERE owner_key = ? AND id = ?`, ownerKey, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// Clear removes every line for ownerKey and reports how many went.
func (r *CartRepo) Clear(ownerKey string) (int64, error) {
	res, err := r.q.Exec(`DELETE FROM cart_items WHERE owner_key = ?`, ownerKey)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
