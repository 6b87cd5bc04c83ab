package postgres

import (
	"context"

	"ravello/domain"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{
		DB: db,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return translate(r.DB.WithContext(ctx).Create(category).Error)
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}

	if err := r.DB.WithContext(ctx).Order("category_name").Find(&categories).Error; err != nil {
		return nil, translate(err)
	}

	return categories, nil
}
