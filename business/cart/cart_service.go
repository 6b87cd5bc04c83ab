package cart

import (
	"context"
	"errors"

	"ravello/domain"
	"ravello/pkg/logger"
)

// CartRepository contract interface
type CartRepository interface {
	// AddOrIncrement inserts a line with quantity 1 or bumps the existing
	// line for the same client and product.
	AddOrIncrement(ctx context.Context, clientID, productID uint64) (domain.CartAddResult, error)
	ListByClient(ctx context.Context, clientID uint64) ([]domain.CartItem, error)
	// DeleteOwned reports how many rows were removed; zero means the line
	// does not exist or belongs to another client.
	DeleteOwned(ctx context.Context, cartID, clientID uint64) (int64, error)
	Summary(ctx context.Context, clientID uint64) (domain.CartSummary, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Product, error)
}

type cartService struct {
	cartRepo    CartRepository
	productRepo ProductRepository
}

func NewCartService(cartRepo CartRepository, productRepo ProductRepository) *cartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) AddToCart(ctx context.Context, clientID, productID uint64) (domain.CartAddResult, error) {
	if productID == 0 {
		return domain.CartAddResult{}, domain.NewValidationError("product_id is required")
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.CartAddResult{}, domain.NewNotFoundError("product not found")
		}
		logger.Error("Failed to find product for cart", err)
		return domain.CartAddResult{}, domain.NewStorageError("failed to load product", err)
	}

	res, err := s.cartRepo.AddOrIncrement(ctx, clientID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrForeignKey) {
			return domain.CartAddResult{}, domain.NewNotFoundError("product not found")
		}
		logger.Error("Failed to add product to cart", err)
		return domain.CartAddResult{}, domain.NewStorageError("failed to add product to cart", err)
	}

	return res, nil
}

func (s *cartService) ListCart(ctx context.Context, clientID uint64) ([]domain.CartItem, error) {
	items, err := s.cartRepo.ListByClient(ctx, clientID)
	if err != nil {
		logger.Error("Failed to list cart", err)
		return nil, domain.NewStorageError("failed to load cart", err)
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	return items, nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, clientID, cartID uint64) error {
	if cartID == 0 {
		return domain.NewValidationError("invalid cart id")
	}

	n, err := s.cartRepo.DeleteOwned(ctx, cartID, clientID)
	if err != nil {
		logger.Error("Failed to remove cart item", err)
		return domain.NewStorageError("failed to remove cart item", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("cart item not found")
	}

	return nil
}

func (s *cartService) CartSummary(ctx context.Context, clientID uint64) (domain.CartSummary, error) {
	summary, err := s.cartRepo.Summary(ctx, clientID)
	if err != nil {
		logger.Error("Failed to summarize cart", err)
		return domain.CartSummary{}, domain.NewStorageError("failed to load cart summary", err)
	}
	return summary, nil
}
