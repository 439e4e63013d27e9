// Package testutils holds in-memory doubles shared by package tests.
package testutils

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jjudge-oj/usersvc/internal/store"
	"github.com/jjudge-oj/usersvc/types"
)

// UserRepository is an in-memory stand-in for store.UserRepository with the
// same error contract: store.ErrNotFound, store.ErrConflict on duplicate
// email, and store.ErrStoreFailure when Fail is set.
type UserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User

	// Fail, when non-nil, is returned (wrapped in ErrStoreFailure) by every call.
	Fail error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{nextID: 1, users: make(map[int]types.User)}
}

func (r *UserRepository) failure() error {
	if r.Fail == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", store.ErrStoreFailure, r.Fail)
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return nil, err
	}
	return r.sorted(func(types.User) bool { return true }), nil
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return types.User{}, err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return types.User{}, err
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) SearchByName(_ context.Context, text string) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(text)
	return r.sorted(func(u types.User) bool {
		return strings.Contains(strings.ToLower(u.Name), needle)
	}), nil
}

func (r *UserRepository) Create(_ context.Context, name, email, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return types.User{}, err
	}
	if r.emailTaken(email, 0) {
		return types.User{}, fmt.Errorf("%w: users_email_key", store.ErrConflict)
	}
	user := types.User{ID: r.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	r.users[user.ID] = user
	r.nextID++
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, id int, patch types.UserPatch) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return types.User{}, err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if patch.Email != nil && r.emailTaken(*patch.Email, id) {
		return types.User{}, fmt.Errorf("%w: users_email_key", store.ErrConflict)
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	r.users[id] = user
	return user, nil
}

func (r *UserRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) Seed(ctx context.Context, users []types.User) (int, error) {
	inserted := 0
	for _, user := range users {
		_, err := r.Create(ctx, user.Name, user.Email, user.PasswordHash)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *UserRepository) emailTaken(email string, exceptID int) bool {
	for id, user := range r.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepository) sorted(keep func(types.User) bool) []types.User {
	out := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		if keep(user) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
