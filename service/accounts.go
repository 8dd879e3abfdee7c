package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/models"
	"nexus-bakery-api/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or wrong password
var ErrInvalidCredentials = errors.New("invalid email or password")

// DemoPoints is the starting balance of demo accounts
const DemoPoints = 1500

var demoNames = map[models.UserRole]string{
	models.RoleAdmin:  "Director_N",
	models.RoleBaker:  "Artisan_X",
	models.RoleDriver: "Logistic_Unit",
	models.RoleClient: "Client_Node",
}

type AccountService struct {
	store store.Store
	log   *slog.Logger
}

func NewAccountService(s store.Store, opts Options) *AccountService {
	return &AccountService{store: s, log: logging.Component(opts.Logger, "accounts")}
}

// Register creates an account with a bcrypt-hashed password
func (s *AccountService) Register(ctx context.Context, name, email, password string, role models.UserRole) (models.User, error) {
	if role == "" {
		role = models.RoleClient
	}
	if !role.Valid() {
		return models.User{}, invalid("invalid role %q, must be client, admin, baker or driver", role)
	}
	if len(password) < 6 {
		return models.User{}, invalid("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.Users().Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
		}
		return models.User{}, classify("register", err)
	}
	user.Tier = models.TierFor(user.NexusPoints)
	s.log.Info("account created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate checks an email/password pair
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, classify("login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// DemoLogin returns the shared demo account for a role, creating it on first use
func (s *AccountService) DemoLogin(ctx context.Context, role models.UserRole) (models.User, error) {
	if !role.Valid() {
		return models.User{}, invalid("invalid role %q", role)
	}
	email := string(role) + "@nexus.atelier"

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, classify("demo login", err)
	}

	user = models.User{
		ID:          uuid.NewString(),
		Name:        demoNames[role],
		Email:       email,
		Role:        role,
		NexusPoints: DemoPoints,
	}
	if err := s.store.Users().Create(ctx, &user); err != nil {
		// a concurrent demo login may have created it first
		if errors.Is(err, store.ErrConflict) {
			user, err = s.store.Users().GetByEmail(ctx, email)
		}
		if err != nil {
			return models.User{}, classify("demo login", err)
		}
	}
	user.Tier = models.TierFor(user.NexusPoints)
	return user, nil
}

func (s *AccountService) Profile(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return models.User{}, classify("profile", lookup(err, "user", id))
	}
	return user, nil
}
