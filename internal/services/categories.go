package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/store"
)

const categoryNameTaken = "The name has already been taken."

type CategoryService struct {
	store store.Store
	guard *policy.Guard
}

func NewCategoryService(st store.Store, guard *policy.Guard) *CategoryService {
	return &CategoryService{store: st, guard: guard}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context, caller *policy.Identity) ([]models.Category, error) {
	if err := s.guard.Authorize(caller, policy.AdminOnly, nil); err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, caller *policy.Identity, in models.CategoryInput) (models.Category, error) {
	if err := s.guard.Authorize(caller, policy.AdminOnly, nil); err != nil {
		return models.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Category{}, NewValidationError("name", "The name field is required.")
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return models.Category{}, err
	}

	category := models.Category{Name: name}
	if err := s.store.CreateCategory(ctx, &category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Category{}, conflict("name", categoryNameTaken)
		}
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, caller *policy.Identity, id uint, in models.CategoryInput) (models.Category, error) {
	if err := s.guard.Authorize(caller, policy.AdminOnly, nil); err != nil {
		return models.Category{}, err
	}
	category, err := s.get(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Category{}, NewValidationError("name", "The name field is required.")
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return models.Category{}, err
	}

	category.Name = name
	if err := s.store.UpdateCategory(ctx, &category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Category{}, conflict("name", categoryNameTaken)
		}
		return models.Category{}, fmt.Errorf("update category: %w", err)
	}
	return s.get(ctx, id)
}

// Delete removes the category and its post links; the posts stay.
func (s *CategoryService) Delete(ctx context.Context, caller *policy.Identity, id uint) error {
	if err := s.guard.Authorize(caller, policy.AdminOnly, nil); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Category")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// PostsByCategory returns the category and its posts. An empty slice is not
// an error here; the handler decides how to report it.
func (s *CategoryService) PostsByCategory(ctx context.Context, caller *policy.Identity, id uint) (models.Category, []models.Post, error) {
	if err := s.guard.Authorize(caller, policy.ReadPublic, nil); err != nil {
		return models.Category{}, nil, err
	}
	category, err := s.get(ctx, id)
	if err != nil {
		return models.Category{}, nil, err
	}
	posts, err := s.store.ListPostsByCategory(ctx, id)
	if err != nil {
		return models.Category{}, nil, fmt.Errorf("list posts by category: %w", err)
	}
	for i := range posts {
		renderPost(&posts[i])
	}
	return category, posts, nil
}

func (s *CategoryService) get(ctx context.Context, id uint) (models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Category{}, notFound("Category")
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.store.FindCategoryByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find category: %w", err)
	case existing.ID != selfID:
		return conflict("name", categoryNameTaken)
	}
	return nil
}
