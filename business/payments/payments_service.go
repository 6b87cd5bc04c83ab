package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"
	"ravello/pkg/metrics"
)

type PaymentsTx interface {
	// FindOrderForClient returns domain.ErrRecordNotFound when the order does
	// not exist or belongs to someone else.
	FindOrderForClient(ctx context.Context, orderID, clientID uint64) (domain.Order, error)
	MarkPaid(ctx context.Context, orderID uint64, paidAt time.Time) error
}

type PaymentsRepository interface {
	WithinTx(ctx context.Context, fn func(tx PaymentsTx) error) error
}

type PaymentsService struct {
	paymentRepo PaymentsRepository
	now         func() time.Time
}

func NewPaymentsService(paymentRepo PaymentsRepository) *PaymentsService {
	return &PaymentsService{
		paymentRepo: paymentRepo,
		now:         time.Now,
	}
}

// ConfirmPayment records the buyer's payment for one of their own orders.
func (s *PaymentsService) ConfirmPayment(ctx context.Context, orderID, clientID uint64) (domain.PaymentConfirmation, error) {
	if orderID == 0 {
		return domain.PaymentConfirmation{}, domain.NewValidationError("order_id is required")
	}

	var confirmation domain.PaymentConfirmation

	err := s.paymentRepo.WithinTx(ctx, func(tx PaymentsTx) error {
		order, err := tx.FindOrderForClient(ctx, orderID, clientID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewNotFoundError("order not found")
			}
			return domain.NewStorageError("failed to load order", err)
		}

		switch order.Status {
		case domain.StatusPaid, domain.StatusShipped, domain.StatusCompleted:
			return domain.NewConflictError(fmt.Sprintf("order is already %s", order.Status))
		}

		paidAt := s.now()
		if err := tx.MarkPaid(ctx, orderID, paidAt); err != nil {
			return domain.NewStorageError("failed to confirm payment", err)
		}

		confirmation = domain.PaymentConfirmation{
			OrderID:     orderID,
			NewStatus:   domain.StatusPaid,
			PaymentDate: paidAt,
		}
		return nil
	})
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewStorageError("failed to confirm payment", err)
		}
		logger.Warn("Payment confirmation rejected", "order_id", orderID, "client_id", clientID, "error", err)
		return domain.PaymentConfirmation{}, err
	}

	metrics.PaymentsConfirmed.Inc()
	logger.Info("Payment confirmed", "order_id", orderID, "client_id", clientID)

	return confirmation, nil
}
