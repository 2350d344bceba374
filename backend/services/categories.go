package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type CategoryService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewCategoryService(store repository.Store, log *logrus.Logger) *CategoryService {
	return &CategoryService{store: store, log: log}
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"max=100"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

func (s *CategoryService) Create(ctx context.Context, user *models.User, in CategoryInput) (*models.Category, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	category := &models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Icon:        in.Icon,
		Order:       in.Order,
		IsActive:    true,
	}
	if category.Slug == "" {
		category.Slug = utils.Slugify(in.Name)
	}
	if category.Slug == "" {
		return nil, invalidInput("category name must contain letters or digits")
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	exists, err := s.store.Categories().Exists(ctx, category.Name, category.Slug, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("category with this name or slug already exists")
	}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalidState("category with this name or slug already exists")
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.store.Categories().GetByID(ctx, id)
	return category, lookup(err, "category")
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.store.Categories().GetBySlug(ctx, slug)
	return category, lookup(err, "category")
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.store.Categories().List(ctx, activeOnly)
}

func (s *CategoryService) Update(ctx context.Context, user *models.User, id uint, patch CategoryPatch) (*models.Category, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	category, err := s.store.Categories().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "category")
	}
	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.Slug != nil {
		category.Slug = *patch.Slug
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.Icon != nil {
		category.Icon = *patch.Icon
	}
	if patch.Order != nil {
		category.Order = *patch.Order
	}
	if patch.IsActive != nil {
		category.IsActive = *patch.IsActive
	}

	exists, err := s.store.Categories().Exists(ctx, category.Name, category.Slug, category.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("category with this name or slug already exists")
	}
	if err := s.store.Categories().Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalidState("category with this name or slug already exists")
		}
		return nil, err
	}
	return category, nil
}

// Delete removes a category that no course refers to.
func (s *CategoryService) Delete(ctx context.Context, user *models.User, id uint) error {
	if err := requireAdmin(user); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().GetByID(ctx, id); err != nil {
			return lookup(err, "category")
		}
		n, err := tx.Courses().CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return invalidState("category still has %d courses", n)
		}
		return lookup(tx.Categories().Delete(ctx, id), "category")
	})
}
