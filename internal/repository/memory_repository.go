package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "pizzaproblem/internal/errors"
	"pizzaproblem/internal/model"
)

// memoryUserRepository is a map-backed store for tests and single-process
// deployments. A single mutex serializes mutations and id assignment, and
// ids come from a monotonic sequence that is never reused.
type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]model.User
	nextID uint
}

// NewMemoryUserRepository builds an empty in-memory repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users:  make(map[uint]model.User),
		nextID: 1,
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.ErrUsernameTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Save(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username && u.ID != user.ID {
			return apperrors.ErrUsernameTaken
		}
	}

	now := time.Now()
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user

	// Keep the sequence ahead of explicitly chosen ids.
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memoryUserRepository) List(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memoryUserRepository) TopByPizzaLove(ctx context.Context, limit int) ([]model.User, error) {
	users, _ := r.List(ctx)
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].PizzaLove != users[j].PizzaLove {
			return users[i].PizzaLove > users[j].PizzaLove
		}
		return users[i].ID < users[j].ID
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *memoryUserRepository) IncrementPizzaLove(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.PizzaLove++
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}
