package repos

import (
	"github.com/jmoiron/sqlx"

	"dormstore/internal/domain"
)

type PackageRepo struct{ q sqlx.Ext }

func NewPackageRepo(db *sqlx.DB) *PackageRepo { return &PackageRepo{q: db} }

func (r *PackageRepo) WithTx(tx *sqlx.Tx) *PackageRepo { return &PackageRepo{q: tx} }

// Get returns sql.ErrNoRows if the package does not exist.
func (r *PackageRepo) Get(id string) (domain.Package, error) {
	var p domain.Package
	err := sqlx.Get(r.q, &p, `
		SELECT id, name, description, price, stock, active,
		       COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at
		FROM packages
		WHERE id = ?
	`, id)
	return p, err
}

func (r *PackageRepo) Items(packageID string) ([]domain.PackageItem, error) {
	out := []domain.PackageItem{}
	err := sqlx.Select(r.q, &out, `
		SELECT package_id, product_id, quantity
		FROM package_items
		WHERE package_id = ?
		ORDER BY product_id
	`, packageID)
	return out, err
}

// ContainingProduct lists the ids of packages that include productID.
func (r *PackageRepo) ContainingProduct(productID string) ([]string, error) {
	var ids []string
	err := sqlx.Select(r.q, &ids, `
		SELECT DISTINCT package_id FROM package_items
		WHERE product_id = ?
		ORDER BY package_id
	`, productID)
	return ids, err
}

func (r *PackageRepo) SetStock(id string, stock int) error {
	res, err := r.q.Exec(`UPDATE packages SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, stock, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// DecrementStock is used for packages without components, whose stock is set by hand.
func (r *PackageRepo) DecrementStock(id string, by int) error {
	res, err := r.q.Exec(`
		UPDATE packages
		SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, by, id, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrStockShort
	}
	return nil
}
