package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"dormstore/internal/domain"
)

// ErrStockShort is returned when a decrement would take stock below zero.
var ErrStockShort = errors.New("insufficient stock")

type ProductRepo struct{ q sqlx.Ext }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{q: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{q: tx} }

const productCols = `
    id, name, description, price, stock, active, sizes_json, colors_json,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// Get returns sql.ErrNoRows if the product does not exist.
func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(r.q, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// Stocks returns current stock for the given ids; absent ids are missing from the map.
func (r *ProductRepo) Stocks(ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, stock FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    string `db:"id"`
		Stock int    `db:"stock"`
	}
	if err := sqlx.Select(r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Stock
	}
	return out, nil
}

func (r *ProductRepo) SetStock(id string, stock int) error {
	res, err := r.q.Exec(`UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, stock, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// DecrementStock subtracts by units only if enough stock exists.
func (r *ProductRepo) DecrementStock(id string, by int) error {
	res, err := r.q.Exec(`
		UPDATE products
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

func (r *ProductRepo) Delete(id string) error {
	res, err := r.q.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// oneRow maps "nothing matched" onto sql.ErrNoRows.
func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
