package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"

	"github.com/shopspring/decimal"
)

// ProductRepository contract interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint64) (domain.Product, error)
	FindAllListings(ctx context.Context) ([]domain.ProductListing, error)
}

// StoreGuard resolves the store owned by a client.
type StoreGuard interface {
	ResolveOwnedStore(ctx context.Context, clientID uint64) (domain.Store, error)
}

// ImageStore persists product images and returns their public relative path.
type ImageStore interface {
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

type ProductInput struct {
	ProductName string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  uint64
}

type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type productService struct {
	productRepo ProductRepository
	guard       StoreGuard
	images      ImageStore
}

func NewProductService(productRepo ProductRepository, guard StoreGuard, images ImageStore) *productService {
	return &productService{
		productRepo: productRepo,
		guard:       guard,
		images:      images,
	}
}

func (s *productService) GetAllProducts(ctx context.Context) ([]domain.ProductListing, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all product")
		return nil, fmt.Errorf("context error: %w", err)
	}

	products, err := s.productRepo.FindAllListings(ctx)
	if err != nil {
		logger.Error("Failed to find all product", err)
		return nil, domain.NewStorageError("failed to load products", err)
	}

	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uint64) (domain.Product, error) {
	if id == 0 {
		return domain.Product{}, domain.NewValidationError("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Product{}, domain.NewNotFoundError("product not found")
		}
		logger.Error("failed to find product by id", err)
		return domain.Product{}, domain.NewStorageError("failed to load product", err)
	}

	return product, nil
}

// CreateProduct lists a product under the caller's store. The image, when
// given, is stored first and removed again if the insert fails.
func (s *productService) CreateProduct(ctx context.Context, clientID uint64, in ProductInput, image *ImageUpload) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when create product")
		return domain.Product{}, fmt.Errorf("context error: %w", err)
	}

	store, err := s.guard.ResolveOwnedStore(ctx, clientID)
	if err != nil {
		return domain.Product{}, err
	}

	in.ProductName = strings.TrimSpace(in.ProductName)
	if in.ProductName == "" {
		logger.Error("Invalid product data: product name is required")
		return domain.Product{}, domain.NewValidationError("product_name is required")
	}

	if in.CategoryID == 0 {
		logger.Error("Invalid product data: category is required")
		return domain.Product{}, domain.NewValidationError("category_id is required")
	}

	if in.Price.IsNegative() {
		logger.Error("Invalid product data: price cannot be negative")
		return domain.Product{}, domain.NewValidationError("price cannot be negative")
	}

	if in.Stock < 0 {
		logger.Error("Invalid product data: stock cannot be negative")
		return domain.Product{}, domain.NewValidationError("stock cannot be negative")
	}

	product := domain.Product{
		StoreID:     store.StoreID,
		CategoryID:  in.CategoryID,
		ProductName: in.ProductName,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		CreatedAt:   time.Now(),
	}

	if image != nil && image.Content != nil {
		path, err := s.images.Save(ctx, image.Filename, image.Content)
		if err != nil {
			logger.Error("failed to store product image", err)
			if domain.IsKind(err, domain.KindValidation) {
				return domain.Product{}, err
			}
			return domain.Product{}, domain.NewDependencyError("failed to store product image", err)
		}
		product.ImageURL = &path
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		if product.ImageURL != nil {
			if rmErr := s.images.Remove(ctx, *product.ImageURL); rmErr != nil {
				logger.Warn("failed to remove orphaned product image", rmErr)
			}
		}
		if errors.Is(err, domain.ErrForeignKey) {
			return domain.Product{}, domain.NewValidationError("category not found")
		}
		logger.Error("failed to create new product", err)
		return domain.Product{}, domain.NewStorageError("failed to create product", err)
	}

	logger.Info("product created successfully", "product_id", product.ProductID, "store_id", store.StoreID)

	return product, nil
}
