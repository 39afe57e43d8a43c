package domain

import "github.com/shopspring/decimal"

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCanceled   = "canceled"

	PaymentPaid   = "paid"
	PaymentMethod = "balance"
)

var orderTransitions = map[string][]string{
	OrderPending:    {OrderProcessing, OrderCanceled},
	OrderProcessing: {OrderShipped, OrderCanceled},
	OrderShipped:    {OrderDelivered},
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

type Order struct {
	ID                int64           `db:"id" json:"id"`
	OrderNumber       string          `db:"order_number" json:"orderNumber"`
	UserID            string          `db:"user_id" json:"userId"`
	Email             string          `db:"email" json:"email"`
	FirstName         string          `db:"first_name" json:"firstName"`
	LastName          string          `db:"last_name" json:"lastName"`
	Phone             string          `db:"phone" json:"phone"`
	Address           string          `db:"address" json:"address"`
	City              string          `db:"city" json:"city"`
	Province          string          `db:"province" json:"province"`
	PostalCode        string          `db:"postal_code" json:"postalCode"`
	Country           string          `db:"country" json:"country"`
	BillingAddress    string          `db:"billing_address" json:"billingAddress"`
	BillingCity       string          `db:"billing_city" json:"billingCity"`
	BillingProvince   string          `db:"billing_province" json:"billingProvince"`
	BillingPostalCode string          `db:"billing_postal_code" json:"billingPostalCode"`
	Notes             string          `db:"notes" json:"notes"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax               decimal.Decimal `db:"tax" json:"tax"`
	Shipping          decimal.Decimal `db:"shipping" json:"shipping"`
	Total             decimal.Decimal `db:"total" json:"total"`
	OrderStatus       string          `db:"order_status" json:"orderStatus"`
	PaymentStatus     string          `db:"payment_status" json:"paymentStatus"`
	PaymentMethod     string          `db:"payment_method" json:"paymentMethod"`
	CreatedAt         string          `db:"created_at" json:"createdAt"`
	UpdatedAt         string          `db:"updated_at" json:"updatedAt"`
}

// OrderItem and OrderPackage snapshot name and price at purchase time.
type OrderItem struct {
	ID            int64           `db:"id" json:"id"`
	OrderID       int64           `db:"order_id" json:"orderId"`
	ProductID     string          `db:"product_id" json:"productId"`
	ProductName   string          `db:"product_name" json:"productName"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	SelectedSize  *string         `db:"selected_size" json:"selectedSize"`
	SelectedColor *string         `db:"selected_color" json:"selectedColor"`
}

type OrderPackage struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	PackageID   string          `db:"package_id" json:"packageId"`
	PackageName string          `db:"package_name" json:"packageName"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}

type OrderDetail struct {
	Order
	Items    []OrderItem    `json:"items"`
	Packages []OrderPackage `json:"packages"`
}
