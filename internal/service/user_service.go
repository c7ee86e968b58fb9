package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pizzaproblem/internal/auth"
	"pizzaproblem/internal/cache"
	apperrors "pizzaproblem/internal/errors"
	"pizzaproblem/internal/model"
	"pizzaproblem/internal/repository"
)

const (
	bcryptCost = 10

	userCacheTTL   = 5 * time.Minute
	topTenCacheTTL = 30 * time.Second
	topTenCacheKey = "users:topten"
	topTenLimit    = 10
)

// CreateUserInput carries the fields for creating or fully replacing a user.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
	PizzaLove int
}

// UpdateUserInput is the full-replace variant used by upserts.
type UpdateUserInput = CreateUserInput

// PatchUserInput carries a partial update; nil fields are left untouched.
type PatchUserInput struct {
	FirstName *string
	LastName  *string
	Username  *string
	Password  *string
	PizzaLove *int
}

// UserService exposes authentication and user domain operations.
type UserService interface {
	// Authenticate checks credentials and returns the user together with a
	// freshly issued bearer token. Unknown username and wrong password both
	// yield apperrors.ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*model.User, string, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	// UpdateUser upserts: it creates the record when id is absent and fully
	// replaces it when present. The bool reports whether a record was created.
	UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, bool, error)
	// PatchUser merges the provided fields into a working copy of the record
	// and commits the result.
	PatchUser(ctx context.Context, id uint, in PatchUserInput) (*model.User, error)
	TopTenPizzaLove(ctx context.Context) ([]model.User, error)
	IncreasePizzaLove(ctx context.Context, id uint) error
}

type userService struct {
	repo   repository.UserRepository
	jwtSvc *auth.JWTService
	cache  *cache.Client
}

// NewUserService builds a UserService with repository, token issuer and cache.
func NewUserService(repo repository.UserRepository, jwtSvc *auth.JWTService, cache *cache.Client) UserService {
	return &userService{repo: repo, jwtSvc: jwtSvc, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) invalidate(ctx context.Context, id uint) {
	_ = s.cache.Delete(ctx, s.cacheKey(id), topTenCacheKey)
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtSvc.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	// Ids start at 1, so 0 can never match an owner.
	if err := s.checkUsernameFree(ctx, in.Username, 0); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		PasswordHash: hash,
		PizzaLove:    in.PizzaLove,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.invalidate(ctx, user.ID)
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, bool, error) {
	created := false
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, false, err
		}
		created = true
	}

	if err := s.checkUsernameFree(ctx, in.Username, id); err != nil {
		return nil, false, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, false, err
	}

	user := &model.User{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		PasswordHash: hash,
		PizzaLove:    in.PizzaLove,
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, false, fmt.Errorf("save user: %w", err)
	}

	s.invalidate(ctx, id)
	return user, created, nil
}

func (s *userService) PatchUser(ctx context.Context, id uint, in PatchUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Apply the patch to a working copy, then commit.
	patched := *user
	if in.FirstName != nil {
		patched.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		patched.LastName = *in.LastName
	}
	if in.Username != nil {
		if err := s.checkUsernameFree(ctx, *in.Username, id); err != nil {
			return nil, err
		}
		patched.Username = *in.Username
	}
	if in.PizzaLove != nil {
		patched.PizzaLove = *in.PizzaLove
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patched.PasswordHash = hash
	}

	if err := s.repo.Save(ctx, &patched); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.invalidate(ctx, id)
	return &patched, nil
}

func (s *userService) TopTenPizzaLove(ctx context.Context) ([]model.User, error) {
	if data, _ := s.cache.Get(ctx, topTenCacheKey); data != nil {
		var cached []model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	users, err := s.repo.TopByPizzaLove(ctx, topTenLimit)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(users); err == nil {
		_ = s.cache.Set(ctx, topTenCacheKey, payload, topTenCacheTTL)
	}
	return users, nil
}

func (s *userService) IncreasePizzaLove(ctx context.Context, id uint) error {
	if err := s.repo.IncrementPizzaLove(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// checkUsernameFree reports ErrUsernameTaken when a different record already
// holds the username. The repository's uniqueness enforcement backstops the
// race between this check and the commit.
func (s *userService) checkUsernameFree(ctx context.Context, username string, ownID uint) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("check username: %w", err)
	}
	if existing.ID != ownID {
		return apperrors.ErrUsernameTaken
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
