package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"ravello/domain"
	"ravello/pkg/logger"
	"ravello/pkg/metrics"

	"gorm.io/datatypes"
)

type buyerSummary struct {
	OrderID         uint64              `json:"order_id"`
	OrderRef        string              `json:"order_ref"`
	OrderDate       string              `json:"order_date"`
	TotalPrice      string              `json:"total_price"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Items           []domain.PlacedLine `json:"items"`
}

type storeLine struct {
	ProductID    uint64 `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int    `json:"quantity_sold"`
	UnitPrice    string `json:"unit_price"`
}

type storeSummary struct {
	OrderID  uint64      `json:"order_id"`
	OrderRef string      `json:"order_ref"`
	StoreID  uint64      `json:"store_id"`
	Items    []storeLine `json:"items"`
}

// groupByStore splits the placed lines into one batch per store, in the
// order stores first appear in the request.
func groupByStore(lines []domain.PlacedLine) ([]uint64, map[uint64][]domain.PlacedLine) {
	order := make([]uint64, 0)
	batches := make(map[uint64][]domain.PlacedLine)
	for _, line := range lines {
		if _, ok := batches[line.StoreID]; !ok {
			order = append(order, line.StoreID)
		}
		batches[line.StoreID] = append(batches[line.StoreID], line)
	}
	return order, batches
}

func buildOrderLogs(placed domain.PlacedOrder) ([]domain.OrderLog, error) {
	order := placed.Order

	buyerJSON, err := json.Marshal(buyerSummary{
		OrderID:         order.OrderID,
		OrderRef:        order.OrderRef,
		OrderDate:       order.OrderDate.Format("2006-01-02 15:04:05"),
		TotalPrice:      order.TotalPrice.StringFixed(2),
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Items:           placed.Lines,
	})
	if err != nil {
		return nil, err
	}

	clientID := order.ClientID
	logs := []domain.OrderLog{{
		OrderID:  order.OrderID,
		Audience: domain.OrderLogBuyer,
		ClientID: &clientID,
		Summary:  datatypes.JSON(buyerJSON),
	}}

	storeIDs, batches := groupByStore(placed.Lines)
	for _, storeID := range storeIDs {
		items := make([]storeLine, 0, len(batches[storeID]))
		for _, line := range batches[storeID] {
			items = append(items, storeLine{
				ProductID:    line.ProductID,
				ProductName:  line.ProductName,
				QuantitySold: line.Quantity,
				UnitPrice:    line.UnitPrice.StringFixed(2),
			})
		}

		storeJSON, err := json.Marshal(storeSummary{
			OrderID:  order.OrderID,
			OrderRef: order.OrderRef,
			StoreID:  storeID,
			Items:    items,
		})
		if err != nil {
			return nil, err
		}

		sid := storeID
		logs = append(logs, domain.OrderLog{
			OrderID:  order.OrderID,
			Audience: domain.OrderLogStore,
			StoreID:  &sid,
			Summary:  datatypes.JSON(storeJSON),
		})
	}

	return logs, nil
}

// notifyPlaced persists the buyer and per-store batches and mails the buyer.
// The order is already committed, so nothing here may fail the request.
func (s *OrdersService) notifyPlaced(ctx context.Context, buyer domain.Client, placed domain.PlacedOrder) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationFailures.Inc()
			logger.Error("Recovered from panic in order notification", "order_id", placed.Order.OrderID, "panic", r)
		}
	}()

	logs, err := buildOrderLogs(placed)
	if err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("Failed to build order logs", "order_id", placed.Order.OrderID, "error", err)
	} else if err := s.orderRepo.SaveLogs(ctx, logs); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("Failed to save order logs", "order_id", placed.Order.OrderID, "error", err)
	}

	if s.notifRepo == nil || buyer.Email == "" {
		return
	}

	body := fmt.Sprintf(EmailBodyOrderPlaced,
		buyer.Name,
		placed.Order.OrderRef,
		placed.Order.TotalPrice.StringFixed(2),
		placed.Order.ShippingAddress,
	)
	if err := s.notifRepo.SendEmail(ctx, buyer.Name, buyer.Email, SubjectOrderPlaced, body); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("Failed to send order confirmation email", "order_id", placed.Order.OrderID, "error", err)
	}
}
