package domain

import "github.com/shopspring/decimal"

const (
	TxnCredit = "credit"
	TxnDebit  = "debit"
)

type UserBalance struct {
	UserID     string          `db:"user_id" json:"-"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	TotalSpent decimal.Decimal `db:"total_spent" json:"totalSpent"`
	CreatedAt  string          `db:"created_at" json:"-"`
	UpdatedAt  string          `db:"updated_at" json:"-"`
}

// BalanceTxn is one ledger movement; OrderID is set for checkout debits.
type BalanceTxn struct {
	ID           int64           `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"-"`
	Kind         string          `db:"kind" json:"kind"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balanceAfter"`
	OrderID      *int64          `db:"order_id" json:"orderId,omitempty"`
	CreatedAt    string          `db:"created_at" json:"createdAt"`
}
