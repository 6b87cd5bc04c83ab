package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ravello/domain"
	"ravello/pkg/logger"
)

// CategoryRepository contract interface
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindAll(ctx context.Context) ([]domain.Category, error)
}

type categoryService struct {
	categoryRepo CategoryRepository
}

func NewCategoryService(categoryRepo CategoryRepository) *categoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
	}
}

func (s *categoryService) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all categories")
		return nil, fmt.Errorf("context error: %w", err)
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to find all categories", err)
		return nil, domain.NewStorageError("failed to load categories", err)
	}

	return categories, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		logger.Error("Invalid category data: category name is required")
		return domain.Category{}, domain.NewValidationError("category_name is required")
	}

	category := domain.Category{CategoryName: name}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Category{}, domain.NewConflictError("category already exists")
		}
		logger.Error("failed to create new category", err)
		return domain.Category{}, domain.NewStorageError("failed to create category", err)
	}

	logger.Info("category created successfully", "category_id", category.CategoryID)

	return category, nil
}
