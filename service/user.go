package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"intellimatch/domain"
)

// Users is the auth collaborator consumed by the HTTP layer. Its only job
// in the pipeline is supplying authenticated owner ids; the orchestrator
// never talks to it.
type Users struct {
	store  domain.UserStore
	logger *zap.Logger
}

// NewUsers returns a configured Users service.
func NewUsers(store domain.UserStore, logger *zap.Logger) *Users {
	return &Users{store: store, logger: logger}
}

// Register creates an account with a bcrypt-hashed password.
func (u *Users) Register(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, &domain.ValidationError{Msg: "name is required"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ValidationError{Msg: "a valid email is required"}
	}
	if len(password) < 6 {
		return nil, &domain.ValidationError{Msg: "password must be at least 6 characters"}
	}

	if _, err := u.store.GetByEmail(ctx, email); err == nil {
		return nil, &domain.ValidationError{Msg: "email already registered"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PhoneNumber:  strings.TrimSpace(phone),
		PasswordHash: string(hash),
	}
	if err := u.store.Create(ctx, user); err != nil {
		return nil, err
	}

	u.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate verifies credentials and returns the account. Invalid
// credentials are reported as domain.ErrNotFound without distinguishing an
// unknown email from a wrong password.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// Get returns the account for an id.
func (u *Users) Get(ctx context.Context, id string) (*domain.User, error) {
	return u.store.GetByID(ctx, id)
}
