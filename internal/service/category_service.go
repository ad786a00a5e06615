package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByCode(ctx context.Context, code string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
}

type categoryDemandCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryRequest represents payload for creating or updating a budget
// category.
type CategoryRequest struct {
	Code     string                 `json:"code" validate:"required"`
	Name     string                 `json:"name" validate:"required"`
	ParentID *string                `json:"parent_id"`
	Type     models.CategoryType    `json:"type" validate:"required,oneof=ordinaire extraordinaire"`
	Section  models.CategorySection `json:"section" validate:"required,oneof=fonctionnement investissement"`
	IsActive *bool                  `json:"is_active"`
}

// CategoryService manages the budget category tree.
type CategoryService struct {
	repo      categoryRepository
	demands   categoryDemandCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService instance.
func NewCategoryService(repo categoryRepository, demands categoryDemandCounter, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CategoryService{repo: repo, demands: demands, validator: validate, logger: logger}
}

// List returns all categories ordered by code.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create adds a new category. Codes are unique across the tree, and the level
// is derived from the parent.
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check code uniqueness")
	}

	level, err := s.resolveLevel(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category := &models.Category{
		Code:     req.Code,
		Name:     req.Name,
		ParentID: req.ParentID,
		Level:    level,
		Type:     req.Type,
		Section:  req.Section,
		IsActive: isActive,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("code", category.Code))

	return category, nil
}

// Update modifies a category. Changing the code to one held by another
// category is a conflict.
func (s *CategoryService) Update(ctx context.Context, id string, req CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	if req.Code != category.Code {
		if existing, err := s.repo.FindByCode(ctx, req.Code); err == nil && existing.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, "category code already exists")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check code uniqueness")
		}
	}

	level, err := s.resolveLevel(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	category.Code = req.Code
	category.Name = req.Name
	category.ParentID = req.ParentID
	category.Level = level
	category.Type = req.Type
	category.Section = req.Section
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}

	return category, nil
}

// Delete removes a category. Categories with children or referenced by
// demands cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count child categories")
	}
	if children > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "category still has child categories")
	}

	demands, err := s.demands.CountByCategory(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count category demands")
	}
	if demands > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "category is referenced by existing demands")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	s.logger.Info("category deleted", zap.String("category_id", id))

	return nil
}

func (s *CategoryService) resolveLevel(ctx context.Context, parentID *string) (int, error) {
	if parentID == nil {
		return 1, nil
	}

	parent, err := s.repo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrValidation, "parent category does not exist")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent category")
	}

	return parent.Level + 1, nil
}
