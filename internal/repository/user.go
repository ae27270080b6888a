package repository

import (
	"sync"

	"nexus-admin-backend/internal/models"
)

// UserRepository holds users in insertion order
type UserRepository struct {
	mu    sync.RWMutex
	users []models.User
}

// NewUserRepository creates a new user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// List returns a copy of all users in insertion order
func (r *UserRepository) List() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u.Clone())
	}
	return users
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.users[i].Clone(), nil
	}
	return models.User{}, models.ErrUserNotFound
}

// Save replaces the user with the same ID entirely or appends a new one.
// It reports whether an existing record was replaced.
func (r *UserRepository) Save(user models.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	user = user.Clone()
	if i := r.indexOf(user.ID); i >= 0 {
		r.users[i] = user
		return true
	}
	r.users = append(r.users, user)
	return false
}

// Delete removes the user with the given ID. Missing IDs are a no-op.
func (r *UserRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return true
}

// Count returns the number of stored users
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *UserRepository) indexOf(id string) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}
