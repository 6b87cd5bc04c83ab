package postgres

import (
	"context"

	"ravello/business/orders"
	"ravello/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

func (r *OrdersRepository) WithinTx(ctx context.Context, fn func(tx orders.OrdersTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ordersTx{db: tx})
	})
}

// ListDetailsByClient returns every line of the client's orders, newest
// order first.
func (r *OrdersRepository) ListDetailsByClient(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error) {
	details := []domain.OrderDetailView{}

	err := r.DB.WithContext(ctx).
		Table("order_detail od").
		Select(`od.order_detail_id, od.order_id, od.product_id, od.store_id, od.quantity, od.unit_price,
			p.product_name, p.image_url, o.status`).
		Joins("JOIN orders o ON o.order_id = od.order_id").
		Joins("JOIN product p ON p.product_id = od.product_id").
		Where("o.client_id = ?", clientID).
		Order("o.order_date DESC, od.order_detail_id").
		Scan(&details).Error
	if err != nil {
		return nil, translate(err)
	}

	return details, nil
}

func (r *OrdersRepository) SaveLogs(ctx context.Context, logs []domain.OrderLog) error {
	if len(logs) == 0 {
		return nil
	}
	return translate(r.DB.WithContext(ctx).Create(&logs).Error)
}

type ordersTx struct {
	db *gorm.DB
}

func (t *ordersTx) FindClient(ctx context.Context, clientID uint64) (domain.Client, error) {
	var client domain.Client
	if err := t.db.WithContext(ctx).First(&client, clientID).Error; err != nil {
		return domain.Client{}, translate(err)
	}
	return client, nil
}

func (t *ordersTx) LockProduct(ctx context.Context, productID uint64) (domain.Product, error) {
	var product domain.Product
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productID).Error
	if err != nil {
		return domain.Product{}, translate(err)
	}
	return product, nil
}

func (t *ordersTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	return translate(t.db.WithContext(ctx).Create(order).Error)
}

func (t *ordersTx) CreateOrderDetails(ctx context.Context, details []domain.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	return translate(t.db.WithContext(ctx).Create(&details).Error)
}

func (t *ordersTx) DecrementStock(ctx context.Context, productID uint64, quantity int) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("product_id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// FindOrderForStore locks the order when at least one of its lines was sold
// by storeID.
func (t *ordersTx) FindOrderForStore(ctx context.Context, orderID, storeID uint64) (domain.Order, error) {
	var order domain.Order
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		Where("EXISTS (SELECT 1 FROM order_detail od WHERE od.order_id = orders.order_id AND od.store_id = ?)", storeID).
		First(&order).Error
	if err != nil {
		return domain.Order{}, translate(err)
	}
	return order, nil
}

func (t *ordersTx) UpdateFulfillment(ctx context.Context, order *domain.Order) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_id = ?", order.OrderID).
		Updates(map[string]any{
			"status":          order.Status,
			"shipped_date":    order.ShippedDate,
			"completion_date": order.CompletionDate,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
