package repos

import (
	"dormstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CreateSession(token, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(token,user_id,created_at,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`, token, userID)
	return err
}

func (r *UserRepo) SessionUser(token string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.token=?`, token)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) DeleteSession(token string) error {
	_, err := r.DB.Exec(`DELETE FROM sessions WHERE token=?`, token)
	return err
}

// Customers lists non-admin accounts.
func (r *UserRepo) Customers() ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `SELECT id,email,name,role FROM users WHERE role != 'ADMIN' ORDER BY email`)
	return out, err
}
