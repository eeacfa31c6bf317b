package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/validation"
)

// Service defines all category-related business operations
type Service interface {
	ListCategories(ctx context.Context, ownerID string) ([]models.Category, error)
	GetCategory(ctx context.Context, id, ownerID string) (models.Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (models.Category, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (models.Category, error)
	DeleteCategory(ctx context.Context, id, ownerID string) error
}

// CreateCategoryRequest contains the data needed to create a new category.
// An empty Color falls back to the default gray.
type CreateCategoryRequest struct {
	OwnerID string `validate:"required"`
	Name    string `validate:"required,max=50"`
	Color   string `validate:"omitempty,len=7,hexcolor"`
}

// UpdateCategoryRequest contains the data needed to update a category
type UpdateCategoryRequest struct {
	ID      string  `validate:"required,uuid"`
	OwnerID string  `validate:"required"`
	Name    *string `validate:"omitempty,max=50"`
	Color   *string `validate:"omitempty,len=7,hexcolor"`
}

// repository defines the data access methods needed by the category service
type repository interface {
	ListCategories(ctx context.Context, ownerID string) ([]models.Category, error)
	GetCategory(ctx context.Context, id, ownerID string) (models.Category, error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, id, ownerID string, mutate func(*models.Category) error) (models.Category, error)
	DeleteCategory(ctx context.Context, id, ownerID string) (models.Category, error)
}

var createRules = validation.Rules{
	"OwnerID":       ErrOwnerRequired,
	"Name.required": ErrEmptyName,
	"Name.max":      ErrNameTooLong,
	"Color":         ErrInvalidColor,
}

var updateRules = validation.Rules{
	"ID":      ErrInvalidCategoryID,
	"OwnerID": ErrOwnerRequired,
	"Name":    ErrNameTooLong,
	"Color":   ErrInvalidColor,
}

type service struct {
	repo repository
}

// NewService creates a new category service
func NewService(repo repository) Service {
	return &service{repo: repo}
}

func (s *service) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.ListCategories(ctx, ownerID)
}

func (s *service) GetCategory(ctx context.Context, id, ownerID string) (models.Category, error) {
	if err := validateIdentity(id, ownerID); err != nil {
		return models.Category{}, err
	}
	return s.repo.GetCategory(ctx, id, ownerID)
}

// CreateCategory validates and creates a new category
func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Color = strings.TrimSpace(req.Color)
	if err := validation.Struct(req, createRules); err != nil {
		return models.Category{}, err
	}

	c := models.Category{Name: req.Name, Color: strings.ToUpper(req.Color), UserID: req.OwnerID}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}

	category, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// UpdateCategory validates and updates a category
func (s *service) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (models.Category, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.Category{}, ErrEmptyName
		}
		req.Name = &name
	}
	if req.Color != nil {
		color := strings.ToUpper(strings.TrimSpace(*req.Color))
		if color == "" {
			return models.Category{}, ErrInvalidColor
		}
		req.Color = &color
	}
	if err := validation.Struct(req, updateRules); err != nil {
		return models.Category{}, err
	}
	if req.Name == nil && req.Color == nil {
		return models.Category{}, ErrNoChanges
	}

	category, err := s.repo.UpdateCategory(ctx, req.ID, req.OwnerID, func(c *models.Category) error {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Color != nil {
			c.Color = *req.Color
		}
		return nil
	})
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory removes a category. Its tasks are kept, uncategorized.
func (s *service) DeleteCategory(ctx context.Context, id, ownerID string) error {
	if err := validateIdentity(id, ownerID); err != nil {
		return err
	}
	if _, err := s.repo.DeleteCategory(ctx, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func validateIdentity(id, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	return validation.Var(id, "required,uuid", ErrInvalidCategoryID)
}
