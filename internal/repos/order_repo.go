package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"dormstore/internal/domain"
)

type OrderRepo struct{ q sqlx.Ext }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{q: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{q: tx} }

const orderCols = `
    id, order_number, user_id, email, first_name, last_name, phone, address, city, province,
    postal_code, country, billing_address, billing_city, billing_province, billing_postal_code,
    notes, subtotal, tax, shipping, total, order_status, payment_status, payment_method,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---------- Writes used by checkout ----------

// Create inserts the order header and returns its id.
func (r *OrderRepo) Create(o domain.Order) (int64, error) {
	res, err := r.q.Exec(`
	  INSERT INTO orders
	    (order_number, user_id, email, first_name, last_name, phone, address, city, province,
	     postal_code, country, billing_address, billing_city, billing_province, billing_postal_code,
	     notes, subtotal, tax, shipping, total, order_status, payment_status, payment_method,
	     created_at, updated_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, o.OrderNumber, o.UserID, o.Email, o.FirstName, o.LastName, o.Phone, o.Address, o.City, o.Province,
		o.PostalCode, o.Country, o.BillingAddress, o.BillingCity, o.BillingProvince, o.BillingPostalCode,
		o.Notes, o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Shipping.StringFixed(2), o.Total.StringFixed(2),
		o.OrderStatus, o.PaymentStatus, o.PaymentMethod)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) InsertItem(it domain.OrderItem) error {
	_, err := r.q.Exec(`
	  INSERT INTO order_items(order_id, product_id, product_name, price, quantity, subtotal, selected_size, selected_color)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, it.OrderID, it.ProductID, it.ProductName, it.Price.StringFixed(2), it.Quantity, it.Subtotal.StringFixed(2),
		nullable(it.SelectedSize), nullable(it.SelectedColor))
	return err
}

func (r *OrderRepo) InsertPackage(p domain.OrderPackage) error {
	_, err := r.q.Exec(`
	  INSERT INTO order_packages(order_id, package_id, package_name, price, quantity, subtotal)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, p.OrderID, p.PackageID, p.PackageName, p.Price.StringFixed(2), p.Quantity, p.Subtotal.StringFixed(2))
	return err
}

// ---------- Reads ----------

func (r *OrderRepo) Get(id int64) (domain.Order, error) {
	var o domain.Order
	err := sqlx.Get(r.q, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	return o, err
}

func (r *OrderRepo) ByNumber(number string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.Get(r.q, &o, `SELECT `+orderCols+` FROM orders WHERE order_number = ?`, number)
	return o, err
}

// Detail loads the order with its snapshot lines.
func (r *OrderRepo) Detail(o domain.Order) (domain.OrderDetail, error) {
	d := domain.OrderDetail{Order: o, Items: []domain.OrderItem{}, Packages: []domain.OrderPackage{}}
	if err := sqlx.Select(r.q, &d.Items, `
		SELECT id, order_id, product_id, product_name, price, quantity, subtotal, selected_size, selected_color
		FROM order_items WHERE order_id = ? ORDER BY id
	`, o.ID); err != nil {
		return domain.OrderDetail{}, err
	}
	if err := sqlx.Select(r.q, &d.Packages, `
		SELECT id, order_id, package_id, package_name, price, quantity, subtotal
		FROM order_packages WHERE order_id = ? ORDER BY id
	`, o.ID); err != nil {
		return domain.OrderDetail{}, err
	}
	return d, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.Select(r.q, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id = ?
		ORDER BY id DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := sqlx.Select(r.q, &out, `SELECT `+orderCols+` FROM orders ORDER BY id DESC LIMIT ?`, limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id int64, status string) error {
	res, err := r.q.Exec(`UPDATE orders SET order_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}
