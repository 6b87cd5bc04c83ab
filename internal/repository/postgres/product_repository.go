package postgres

import (
	"context"
	"fmt"

	"ravello/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(product).Error; err != nil {
		return translate(err)
	}

	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint64) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("context error: %w", err)
	}

	var product domain.Product

	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return domain.Product{}, translate(err)
	}

	return product, nil
}

// FindAllListings returns the catalog with store names, newest first.
func (r *ProductRepository) FindAllListings(ctx context.Context) ([]domain.ProductListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	products := []domain.ProductListing{}
	err := r.DB.WithContext(ctx).
		Table("product p").
		Select(`p.product_id, p.product_name, p.description, p.price, p.stock, p.category_id,
			p.image_url, s.store_name, s.store_id`).
		Joins("JOIN store s ON s.store_id = p.store_id").
		Order("p.created_at DESC, p.product_id DESC").
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", translate(err))
	}

	return products, nil
}
