package postgres

import (
	"context"
	"time"

	"ravello/business/payments"
	"ravello/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentsRepository struct {
	DB *gorm.DB
}

func NewPaymentsRepository(db *gorm.DB) *PaymentsRepository {
	return &PaymentsRepository{
		DB: db,
	}
}

func (r *PaymentsRepository) WithinTx(ctx context.Context, fn func(tx payments.PaymentsTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&paymentsTx{db: tx})
	})
}

type paymentsTx struct {
	db *gorm.DB
}

func (t *paymentsTx) FindOrderForClient(ctx context.Context, orderID, clientID uint64) (domain.Order, error) {
	var order domain.Order
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND client_id = ?", orderID, clientID).
		First(&order).Error
	if err != nil {
		return domain.Order{}, translate(err)
	}
	return order, nil
}

func (t *paymentsTx) MarkPaid(ctx context.Context, orderID uint64, paidAt time.Time) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":       domain.StatusPaid,
			"payment_date": paidAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
