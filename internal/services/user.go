package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jjudge-oj/usersvc/internal/mq"
	"github.com/jjudge-oj/usersvc/internal/store"
	"github.com/jjudge-oj/usersvc/types"
)

var (
	// ErrValidation is returned when a use-case receives incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrTokensDisabled is returned by Login on a service built without a
	// TokenManager.
	ErrTokensDisabled = errors.New("token issuing is not configured")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	SearchByName(ctx context.Context, text string) ([]types.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (types.User, error)
	Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int) error
	Seed(ctx context.Context, users []types.User) (int, error)
}

// EventPublisher receives user lifecycle events. *mq.EventPublisher
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event mq.UserEvent) error
}

// UserUpdate carries the fields of a partial update. Nil or empty values are
// treated as not supplied.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// Credentials is a plain-text account used for seeding.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// DefaultSeedUsers are the sample accounts loaded by the seed command.
var DefaultSeedUsers = []Credentials{
	{Name: "John Doe", Email: "john@example.com", Password: "password123"},
	{Name: "Jane Smith", Email: "jane@example.com", Password: "secret456"},
	{Name: "Bob Johnson", Email: "bob@example.com", Password: "qwerty789"},
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	hasher *PasswordHasher
	tokens *TokenManager
	events EventPublisher
}

// NewUserService wires the use-cases. tokens may be nil for callers that
// never log users in.
func NewUserService(repo UserRepository, hasher *PasswordHasher, tokens *TokenManager) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens}
}

// UseEvents enables lifecycle event publishing. A nil publisher disables it.
func (s *UserService) UseEvents(events EventPublisher) {
	s.events = events
}

func (s *UserService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) SearchUsers(ctx context.Context, name string) ([]types.User, error) {
	return s.repo.SearchByName(ctx, name)
}

// CreateUser hashes the password and stores a new user. Duplicate emails
// fail with store.ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (types.User, error) {
	if name == "" || email == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, name, email, hashed)
	if err != nil {
		return types.User{}, err
	}
	s.publish(ctx, mq.UserCreated, user)
	return user, nil
}

// UpdateUser applies the supplied fields, re-hashing the password only when
// one is given.
func (s *UserService) UpdateUser(ctx context.Context, id int, update UserUpdate) (types.User, error) {
	patch := types.UserPatch{
		Name:  nonEmpty(update.Name),
		Email: nonEmpty(update.Email),
	}
	password := nonEmpty(update.Password)
	if patch.Name == nil && patch.Email == nil && password == nil {
		return types.User{}, fmt.Errorf("%w: at least one of name, email or password is required", ErrValidation)
	}

	if password != nil {
		hashed, err := s.hasher.Hash(*password)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = &hashed
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.User{}, err
	}
	s.publish(ctx, mq.UserUpdated, user)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, mq.UserDeleted, types.User{ID: id})
	return nil
}

// Login returns a signed token when the credentials match. ok is false for
// an unknown email or a wrong password alike; err is reserved for faults.
func (s *UserService) Login(ctx context.Context, email, password string) (token string, ok bool, err error) {
	if s.tokens == nil {
		return "", false, ErrTokensDisabled
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return "", false, nil
		}
		return "", false, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return "", false, nil
	}

	token, err = s.tokens.Issue(user)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Seed inserts accounts whose email is not yet taken and returns how many
// were added.
func (s *UserService) Seed(ctx context.Context, accounts []Credentials) (int, error) {
	users := make([]types.User, 0, len(accounts))
	for _, account := range accounts {
		hashed, err := s.hasher.Hash(account.Password)
		if err != nil {
			return 0, fmt.Errorf("hash password for %s: %w", account.Email, err)
		}
		users = append(users, types.User{Name: account.Name, Email: account.Email, PasswordHash: hashed})
	}
	return s.repo.Seed(ctx, users)
}

func (s *UserService) publish(ctx context.Context, eventType string, user types.User) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, mq.NewUserEvent(eventType, user)); err != nil {
		slog.WarnContext(ctx, "failed to publish user event", "type", eventType, "user_id", user.ID, "error", err)
	}
}

func nonEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
