package postgres

import (
	"context"
	"time"

	"ravello/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	DB *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{
		DB: db,
	}
}

// upsertCartLine inserts line or, when the client already has the product in
// the cart, bumps the stored quantity in the same statement. cart_id and
// quantity are read back into line.
func upsertCartLine(tx *gorm.DB, line *domain.Cart) *gorm.DB {
	return tx.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart.quantity + 1")}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "cart_id"}, {Name: "quantity"}}},
	).Create(line)
}

func (r *CartRepository) AddOrIncrement(ctx context.Context, clientID, productID uint64) (domain.CartAddResult, error) {
	line := domain.Cart{
		ClientID:  clientID,
		ProductID: productID,
		Quantity:  1,
		AddedDate: time.Now(),
	}
	if err := upsertCartLine(r.DB.WithContext(ctx), &line).Error; err != nil {
		return domain.CartAddResult{}, translate(err)
	}

	// an existing line always comes back with at least 2
	return domain.CartAddResult{CartID: line.CartID, Created: line.Quantity == 1}, nil
}

func (r *CartRepository) ListByClient(ctx context.Context, clientID uint64) ([]domain.CartItem, error) {
	items := []domain.CartItem{}

	err := r.DB.WithContext(ctx).
		Table("cart c").
		Select("c.cart_id, c.quantity, c.added_date, p.product_id, p.product_name, p.price").
		Joins("JOIN product p ON p.product_id = c.product_id").
		Where("c.client_id = ?", clientID).
		Order("c.added_date DESC").
		Scan(&items).Error
	if err != nil {
		return nil, translate(err)
	}

	return items, nil
}

func (r *CartRepository) DeleteOwned(ctx context.Context, cartID, clientID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("cart_id = ? AND client_id = ?", cartID, clientID).
		Delete(&domain.Cart{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}

	return res.RowsAffected, nil
}

func (r *CartRepository) Summary(ctx context.Context, clientID uint64) (domain.CartSummary, error) {
	var summary domain.CartSummary

	err := r.DB.WithContext(ctx).
		Table("cart c").
		Select("COALESCE(SUM(c.quantity * p.price), 0) AS total_price, COALESCE(SUM(c.quantity), 0) AS total_quantity").
		Joins("JOIN product p ON p.product_id = c.product_id").
		Where("c.client_id = ?", clientID).
		Scan(&summary).Error
	if err != nil {
		return domain.CartSummary{}, translate(err)
	}

	return summary, nil
}
