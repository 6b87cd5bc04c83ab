package orders

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"
	"ravello/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrdersTx is the set of statements the order engine runs inside one
// database transaction. Implementations are only valid inside WithinTx.
type OrdersTx interface {
	FindClient(ctx context.Context, clientID uint64) (domain.Client, error)
	// LockProduct re-reads the product row and holds a row lock on it until
	// the transaction ends.
	LockProduct(ctx context.Context, productID uint64) (domain.Product, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderDetails(ctx context.Context, details []domain.OrderDetail) error
	// DecrementStock returns domain.ErrInsufficientStock when the row no
	// longer holds quantity units.
	DecrementStock(ctx context.Context, productID uint64, quantity int) error
	FindOrderForStore(ctx context.Context, orderID, storeID uint64) (domain.Order, error)
	UpdateFulfillment(ctx context.Context, order *domain.Order) error
}

type OrdersRepository interface {
	// WithinTx runs fn in a transaction that is committed when fn returns nil
	// and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(tx OrdersTx) error) error
	ListDetailsByClient(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error)
	SaveLogs(ctx context.Context, logs []domain.OrderLog) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Product, error)
}

type NotificationRepository interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, message string) error
}

type OrdersService struct {
	orderRepo   OrdersRepository
	productRepo ProductRepository
	notifRepo   NotificationRepository
	now         func() time.Time
	newRef      func(now time.Time) string
}

const (
	SubjectOrderPlaced   = "Your Ravello order has been placed"
	EmailBodyOrderPlaced = `Halo, %v, pesanan %v berhasil dibuat.</br>Total: %v</br>Dikirim ke: %v</br>Status: menunggu pembayaran.`
)

func NewOrdersService(orderRepo OrdersRepository, productRepo ProductRepository, notifRepo NotificationRepository) *OrdersService {
	return &OrdersService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifRepo:   notifRepo,
		now:         time.Now,
		newRef:      generateOrderRef,
	}
}

func generateOrderRef(now time.Time) string {
	return now.Format("20060102150405") + "-" + uuid.NewString()
}

// PlaceOrder validates the request, snapshots prices, creates the order and
// its lines and decrements stock as one transaction.
func (s *OrdersService) PlaceOrder(ctx context.Context, in domain.PlaceOrderInput) (domain.PlacedOrder, error) {
	start := time.Now()
	defer func() {
		metrics.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	placed, buyer, err := s.placeOrder(ctx, in)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(string(domain.KindOf(err))).Inc()
		if domain.KindOf(err) == domain.KindStorage {
			logger.Error("Failed to place order", err)
		} else {
			logger.Warn("Order rejected", "client_id", in.ClientID, "reason", err.Error())
		}
		return domain.PlacedOrder{}, err
	}

	metrics.OrdersPlaced.Inc()
	logger.Info("Order placed", "order_id", placed.Order.OrderID, "client_id", in.ClientID, "total", placed.Order.TotalPrice.StringFixed(2))

	s.notifyPlaced(context.WithoutCancel(ctx), buyer, placed)

	return placed, nil
}

func (s *OrdersService) placeOrder(ctx context.Context, in domain.PlaceOrderInput) (domain.PlacedOrder, domain.Client, error) {
	if len(in.Items) == 0 {
		return domain.PlacedOrder{}, domain.Client{}, domain.NewValidationError("order items are required")
	}

	if strings.TrimSpace(in.PaymentMethod) == "" {
		return domain.PlacedOrder{}, domain.Client{}, domain.NewValidationError("payment method is required")
	}

	for _, item := range in.Items {
		if item.ProductID == 0 {
			return domain.PlacedOrder{}, domain.Client{}, domain.NewValidationError("product id is required for every item")
		}
		if item.Quantity < 1 {
			return domain.PlacedOrder{}, domain.Client{}, domain.NewValidationError(fmt.Sprintf("quantity for product %d must be at least 1", item.ProductID))
		}
	}

	var (
		placed domain.PlacedOrder
		buyer  domain.Client
	)

	err := s.orderRepo.WithinTx(ctx, func(tx OrdersTx) error {
		client, err := tx.FindClient(ctx, in.ClientID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewNotFoundError("client not found")
			}
			return domain.NewStorageError("failed to load client", err)
		}

		address := strings.TrimSpace(in.ShippingAddress)
		if address == "" && client.Address != nil {
			address = strings.TrimSpace(*client.Address)
		}
		if address == "" {
			return domain.NewValidationError("shipping address is required, fill it in or complete the default address in your profile")
		}

		total := decimal.Zero
		lines := make([]domain.PlacedLine, 0, len(in.Items))
		requested := make(map[uint64]int, len(in.Items))

		for _, item := range in.Items {
			requested[item.ProductID] = 0
		}

		// rows are locked once each in ascending id order so two orders
		// touching the same products cannot deadlock each other
		products := make(map[uint64]domain.Product, len(requested))
		for _, id := range slices.Sorted(maps.Keys(requested)) {
			product, err := tx.LockProduct(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					nf := domain.NewNotFoundError(fmt.Sprintf("product %d not found", id))
					nf.ProductID = id
					return nf
				}
				return domain.NewStorageError("failed to load product", err)
			}
			products[id] = product
		}

		for _, item := range in.Items {
			product := products[item.ProductID]

			requested[item.ProductID] += item.Quantity
			if requested[item.ProductID] > product.Stock {
				return domain.NewInsufficientStockError(item.ProductID, product.Stock)
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			lines = append(lines, domain.PlacedLine{
				ProductID:   product.ProductID,
				ProductName: product.ProductName,
				StoreID:     product.StoreID,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
			})
		}

		now := s.now()
		order := domain.Order{
			OrderRef:        s.newRef(now),
			ClientID:        in.ClientID,
			OrderDate:       now,
			TotalPrice:      total,
			Status:          domain.StatusWaitingForPayment,
			ShippingAddress: address,
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return domain.NewStorageError("failed to create order", err)
		}

		details := make([]domain.OrderDetail, 0, len(lines))
		for _, line := range lines {
			details = append(details, domain.OrderDetail{
				OrderID:   order.OrderID,
				ProductID: line.ProductID,
				StoreID:   line.StoreID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		if err := tx.CreateOrderDetails(ctx, details); err != nil {
			return domain.NewStorageError("failed to create order details", err)
		}

		for _, line := range lines {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return domain.NewInsufficientStockError(line.ProductID, 0)
				}
				return domain.NewStorageError("failed to update stock", err)
			}
		}

		placed = domain.PlacedOrder{Order: order, Lines: lines}
		buyer = client
		return nil
	})
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewStorageError("failed to place order", err)
		}
		return domain.PlacedOrder{}, domain.Client{}, err
	}

	return placed, buyer, nil
}

// UpdateFulfillment moves a paid order to shipped or completed on behalf of a
// store that sells at least one of its lines. Repeating a status is a no-op
// and timestamps are only stamped the first time.
func (s *OrdersService) UpdateFulfillment(ctx context.Context, orderID, storeID uint64, status domain.OrderStatus) (domain.FulfillmentUpdate, error) {
	if !status.IsFulfillment() {
		return domain.FulfillmentUpdate{}, domain.NewValidationError("invalid status, only 'shipped' or 'completed' are accepted")
	}

	result := domain.FulfillmentUpdate{OrderID: orderID, StoreID: storeID, NewStatus: status}

	err := s.orderRepo.WithinTx(ctx, func(tx OrdersTx) error {
		order, err := tx.FindOrderForStore(ctx, orderID, storeID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewAuthorizationError("order does not contain products from your store")
			}
			return domain.NewStorageError("failed to load order", err)
		}

		if order.Status == domain.StatusWaitingForPayment {
			return domain.NewValidationError("order has not been paid")
		}

		if status.Before(order.Status) {
			return domain.NewConflictError(fmt.Sprintf("order is already %s and cannot move back to %s", order.Status, status))
		}

		now := s.now()
		changed := false
		if order.Status != status {
			order.Status = status
			changed = true
		}
		if status == domain.StatusShipped && order.ShippedDate == nil {
			order.ShippedDate = &now
			changed = true
		}
		if status == domain.StatusCompleted && order.CompletionDate == nil {
			order.CompletionDate = &now
			changed = true
		}

		if !changed {
			return nil
		}

		if err := tx.UpdateFulfillment(ctx, &order); err != nil {
			return domain.NewStorageError("failed to update order status", err)
		}
		result.Changed = true
		return nil
	})
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewStorageError("failed to update order status", err)
		}
		logger.Error("Failed to update fulfillment", "order_id", orderID, "store_id", storeID, "error", err)
		return domain.FulfillmentUpdate{}, err
	}

	if result.Changed {
		metrics.FulfillmentUpdates.WithLabelValues(string(status)).Inc()
	}

	return result, nil
}

func (s *OrdersService) ListOrderDetails(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	details, err := s.orderRepo.ListDetailsByClient(ctx, clientID)
	if err != nil {
		logger.Error("Failed to list order details", err)
		return nil, domain.NewStorageError("failed to load order details", err)
	}

	return details, nil
}

// PreviewPrice prices a single product line at the current catalog price
// without touching stock.
func (s *OrdersService) PreviewPrice(ctx context.Context, productID uint64, quantity int) (domain.PricePreview, error) {
	if productID == 0 {
		return domain.PricePreview{}, domain.NewValidationError("product_id is required")
	}
	if quantity <= 0 {
		return domain.PricePreview{}, domain.NewValidationError("quantity must be greater than 0")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.PricePreview{}, domain.NewNotFoundError("product not found")
		}
		logger.Error("Failed to find product for preview", err)
		return domain.PricePreview{}, domain.NewStorageError("failed to load product", err)
	}

	return domain.PricePreview{
		ProductID:   product.ProductID,
		ProductName: product.ProductName,
		UnitPrice:   product.Price,
		Quantity:    quantity,
		TotalPrice:  product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}
