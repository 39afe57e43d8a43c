package services

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"dormstore/internal/domain"
	"dormstore/internal/repos"
)

// BalanceService is the prepaid balance ledger.
type BalanceService struct {
	DB       *sqlx.DB
	Balances *repos.BalanceRepo
	Starting decimal.Decimal
	MaxTopUp decimal.Decimal
}

func NewBalanceService(db *sqlx.DB, balances *repos.BalanceRepo, starting, maxTopUp decimal.Decimal) *BalanceService {
	return &BalanceService{DB: db, Balances: balances, Starting: starting, MaxTopUp: maxTopUp}
}

// ensureBalance returns the user's row, creating it with the starting credit on first access.
func ensureBalance(r *repos.BalanceRepo, userID string, starting decimal.Decimal) (domain.UserBalance, error) {
	b, err := r.Get(userID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.UserBalance{}, storage("load balance", err)
	}
	if err := r.CreateIfAbsent(userID, starting); err != nil {
		return domain.UserBalance{}, storage("create balance", err)
	}
	b, err = r.Get(userID)
	if err != nil {
		return domain.UserBalance{}, storage("load balance", err)
	}
	return b, nil
}

// debit takes amount from the balance and adds it to total spent. It re-reads
// the row and refuses to go negative, so a caller's earlier check is not the
// only guard. Must run inside the caller's transaction.
func debit(r *repos.BalanceRepo, userID string, amount decimal.Decimal, orderID *int64) (domain.UserBalance, error) {
	if amount.IsNegative() {
		return domain.UserBalance{}, invalid("debit amount must not be negative")
	}
	b, err := r.Get(userID)
	if err != nil {
		return domain.UserBalance{}, lookup("balance", err)
	}
	if b.Balance.LessThan(amount) {
		return domain.UserBalance{}, &InsufficientFundsError{
			Balance:   b.Balance,
			Required:  amount,
			Shortfall: amount.Sub(b.Balance),
		}
	}
	b.Balance = b.Balance.Sub(amount).Round(2)
	b.TotalSpent = b.TotalSpent.Add(amount).Round(2)
	if err := r.Save(userID, b.Balance, b.TotalSpent); err != nil {
		return domain.UserBalance{}, storage("save balance", err)
	}
	if err := r.AddTxn(domain.BalanceTxn{UserID: userID, Kind: domain.TxnDebit, Amount: amount, BalanceAfter: b.Balance, OrderID: orderID}); err != nil {
		return domain.UserBalance{}, storage("record debit", err)
	}
	return b, nil
}

// Get returns the user's balance, creating it on first read.
func (s *BalanceService) Get(userID string) (domain.UserBalance, error) {
	return ensureBalance(s.Balances, userID, s.Starting)
}

// Credit tops up the balance. total_spent is untouched.
func (s *BalanceService) Credit(userID string, amount decimal.Decimal) (domain.UserBalance, error) {
	if !amount.IsPositive() {
		return domain.UserBalance{}, invalid("amount must be greater than zero")
	}
	if !amount.Round(2).Equal(amount) {
		return domain.UserBalance{}, invalid("amount must have at most two decimal places")
	}
	if s.MaxTopUp.IsPositive() && amount.GreaterThan(s.MaxTopUp) {
		return domain.UserBalance{}, invalid("amount exceeds the top-up limit of %s", s.MaxTopUp.StringFixed(2))
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.UserBalance{}, storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	r := s.Balances.WithTx(tx)

	b, err := ensureBalance(r, userID, s.Starting)
	if err != nil {
		return domain.UserBalance{}, err
	}
	b.Balance = b.Balance.Add(amount).Round(2)
	if err := r.Save(userID, b.Balance, b.TotalSpent); err != nil {
		return domain.UserBalance{}, storage("save balance", err)
	}
	if err := r.AddTxn(domain.BalanceTxn{UserID: userID, Kind: domain.TxnCredit, Amount: amount, BalanceAfter: b.Balance}); err != nil {
		return domain.UserBalance{}, storage("record credit", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.UserBalance{}, storage("commit", err)
	}
	return b, nil
}

func (s *BalanceService) History(userID string, limit int) ([]domain.BalanceTxn, error) {
	out, err := s.Balances.History(userID, limit)
	if err != nil {
		return nil, storage("load balance history", err)
	}
	return out, nil
}
