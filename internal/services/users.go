package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/auth"
	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/store"
	"blogapi/internal/utils"
)

const emailTaken = "The email has already been taken."

type UserService struct {
	store       store.Store
	provider    *auth.Provider
	cache       *utils.Cache
	adminEmails map[string]struct{}
}

func NewUserService(st store.Store, provider *auth.Provider, cache *utils.Cache, adminEmails []string) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = struct{}{}
	}
	return &UserService{store: st, provider: provider, cache: cache, adminEmails: admins}
}

// Register creates an account. Emails listed in ADMIN_EMAILS get the admin role.
func (s *UserService) Register(ctx context.Context, in models.RegisterRequest) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.User{}, NewValidationError("name", "The name field is required.")
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return models.User{}, err
	}

	hash, err := s.provider.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	role := models.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = models.RoleAdmin
	}

	user := models.User{Name: name, Email: email, Password: hash, Role: role}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, conflict("email", emailTaken)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	utils.LogInfoWithUser(user.ID, "User registered")
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, caller *policy.Identity) (models.User, error) {
	if caller == nil {
		return models.User{}, ErrUnauthenticated
	}
	user, err := s.store.GetUser(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's own name, email or password.
func (s *UserService) UpdateProfile(ctx context.Context, caller *policy.Identity, in models.ProfileUpdate) (models.User, error) {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return models.User{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.User{}, NewValidationError("name", "The name field must not be empty.")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return models.User{}, err
		}
		user.Email = email
	}
	if in.Password != nil {
		hash, err := s.provider.HashPassword(*in.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hash
	}

	if err := s.store.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, conflict("email", emailTaken)
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	// cached listings embed author names
	s.cache.DeletePrefix(postListCachePrefix)
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID uint) error {
	existing, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find user: %w", err)
	case existing.ID != selfID:
		return conflict("email", emailTaken)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
