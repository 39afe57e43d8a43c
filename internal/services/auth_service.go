package services

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dormstore/internal/domain"
	"dormstore/internal/repos"
)

type AuthService struct {
	Users *repos.UserRepo
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if isNoRows(err) {
		return "", nil, ErrBadCreds
	}
	if err != nil {
		return "", nil, storage("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	token := uuid.NewString()
	if err := s.Users.CreateSession(token, u.ID); err != nil {
		return "", nil, storage("create session", err)
	}
	return token, u, nil
}

func (s *AuthService) Logout(token string) error {
	return s.Users.DeleteSession(token)
}

func (s *AuthService) CurrentUser(token string) (*domain.User, error) {
	return s.Users.SessionUser(token)
}
