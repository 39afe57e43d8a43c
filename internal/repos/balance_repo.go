package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"dormstore/internal/domain"
)

type BalanceRepo struct{ q sqlx.Ext }

func NewBalanceRepo(db *sqlx.DB) *BalanceRepo { return &BalanceRepo{q: db} }

func (r *BalanceRepo) WithTx(tx *sqlx.Tx) *BalanceRepo { return &BalanceRepo{q: tx} }

// Get returns sql.ErrNoRows when the user has no balance row yet.
func (r *BalanceRepo) Get(userID string) (domain.UserBalance, error) {
	var b domain.UserBalance
	err := sqlx.Get(r.q, &b, `
		SELECT user_id, balance, total_spent,
		       COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at
		FROM user_balances
		WHERE user_id = ?
	`, userID)
	return b, err
}

// CreateIfAbsent inserts a row with the starting credit; an existing row is left alone.
func (r *BalanceRepo) CreateIfAbsent(userID string, starting decimal.Decimal) error {
	_, err := r.q.Exec(`
		INSERT INTO user_balances(user_id, balance, total_spent, created_at, updated_at)
		VALUES (?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, starting.StringFixed(2))
	return err
}

func (r *BalanceRepo) Save(userID string, balance, totalSpent decimal.Decimal) error {
	res, err := r.q.Exec(`
		UPDATE user_balances
		SET balance = ?, total_spent = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, balance.StringFixed(2), totalSpent.StringFixed(2), userID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *BalanceRepo) AddTxn(t domain.BalanceTxn) error {
	_, err := r.q.Exec(`
		INSERT INTO balance_transactions(user_id, kind, amount, balance_after, order_id, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, t.UserID, t.Kind, t.Amount.StringFixed(2), t.BalanceAfter.StringFixed(2), nullableID(t.OrderID))
	return err
}

// History returns the newest ledger movements first.
func (r *BalanceRepo) History(userID string, limit int) ([]domain.BalanceTxn, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.BalanceTxn{}
	err := sqlx.Select(r.q, &out, `
		SELECT id, user_id, kind, amount, balance_after, order_id, COALESCE(created_at,'') AS created_at
		FROM balance_transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	return out, err
}
