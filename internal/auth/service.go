package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mealplanner/internal/core"
	"mealplanner/internal/log"
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
}

type Service struct {
	users  UserStore
	logger *log.Logger
}

func NewService(users UserStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{users: users, logger: logger.WithComponent(log.ComponentAuth)}
}

// Register validates the form and creates the user with default unit
// preferences.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (core.User, error) {
	username = strings.TrimSpace(username)
	if err := core.ValidateRegistration(username, password, confirm); err != nil {
		return core.User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID, log.FieldUsername, u.Username)
	return u, nil
}

// Login checks the credentials. Unknown users and wrong passwords both
// return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		s.logger.WarnContext(ctx, "Login for unknown user", log.FieldUsername, username)
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.logger.WarnContext(ctx, "Login with wrong password", log.FieldUserID, u.ID)
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}
