package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/jdginv/internal/domain"
)

var (
	// ErrInvalidCredentials is returned when the identifier or secret is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
)

// userRepository is the subset of store.UserStore that Provider requires.
type userRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Provider signs users in against password hashes held in the user store.
type Provider struct {
	users userRepository
	cost  int
}

func NewProvider(users userRepository) *Provider {
	return &Provider{users: users, cost: bcrypt.DefaultCost}
}

// SignIn checks identifier and secret. Unknown users and wrong secrets both
// yield ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, identifier, secret string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := p.users.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (p *Provider) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	existing, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return p.users.Create(ctx, username, string(hash))
}

// EnsureUser makes sure username exists and accepts password, creating the
// account or resetting its password as needed.
func (p *Provider) EnsureUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return p.Register(ctx, username, password)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return user, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := p.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	return user, nil
}
