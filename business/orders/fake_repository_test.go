//go:build !integration

package orders

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"ravello/domain"
)

type memState struct {
	clients  map[uint64]domain.Client
	products map[uint64]domain.Product
	orders   map[uint64]domain.Order
	details  []domain.OrderDetail
	nextID   uint64
}

func (s memState) clone() memState {
	return memState{
		clients:  maps.Clone(s.clients),
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
		details:  slices.Clone(s.details),
		nextID:   s.nextID,
	}
}

// memOrdersRepo serializes transactions with a mutex and applies a staged
// copy of the state only when the callback succeeds.
type memOrdersRepo struct {
	mu      sync.Mutex
	state   memState
	logs    []domain.OrderLog
	logsErr error
	// locked records every LockProduct call in order
	locked []uint64

	failCreateDetails error
}

func newMemOrdersRepo() *memOrdersRepo {
	return &memOrdersRepo{state: memState{
		clients:  map[uint64]domain.Client{},
		products: map[uint64]domain.Product{},
		orders:   map[uint64]domain.Order{},
	}}
}

func (r *memOrdersRepo) WithinTx(ctx context.Context, fn func(tx OrdersTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.state.clone()
	if err := fn(&memOrdersTx{repo: r, state: &staged}); err != nil {
		return err
	}
	r.state = staged
	return nil
}

func (r *memOrdersRepo) ListDetailsByClient(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.OrderDetailView
	for _, d := range r.state.details {
		o := r.state.orders[d.OrderID]
		if o.ClientID != clientID {
			continue
		}
		out = append(out, domain.OrderDetailView{
			OrderDetailID: d.OrderDetailID,
			OrderID:       d.OrderID,
			ProductID:     d.ProductID,
			ProductName:   r.state.products[d.ProductID].ProductName,
			Quantity:      d.Quantity,
			UnitPrice:     d.UnitPrice,
			Status:        o.Status,
		})
	}
	return out, nil
}

func (r *memOrdersRepo) SaveLogs(ctx context.Context, logs []domain.OrderLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.logsErr != nil {
		return r.logsErr
	}
	r.logs = append(r.logs, logs...)
	return nil
}

func (r *memOrdersRepo) FindByID(ctx context.Context, id uint64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.state.products[id]
	if !ok {
		return domain.Product{}, domain.ErrRecordNotFound
	}
	return p, nil
}

func (r *memOrdersRepo) product(id uint64) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.products[id]
}

func (r *memOrdersRepo) orderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.orders)
}

type memOrdersTx struct {
	repo  *memOrdersRepo
	state *memState
}

func (t *memOrdersTx) FindClient(ctx context.Context, clientID uint64) (domain.Client, error) {
	c, ok := t.state.clients[clientID]
	if !ok {
		return domain.Client{}, domain.ErrRecordNotFound
	}
	return c, nil
}

func (t *memOrdersTx) LockProduct(ctx context.Context, productID uint64) (domain.Product, error) {
	t.repo.locked = append(t.repo.locked, productID)
	p, ok := t.state.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrRecordNotFound
	}
	return p, nil
}

func (t *memOrdersTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	t.state.nextID++
	order.OrderID = t.state.nextID
	t.state.orders[order.OrderID] = *order
	return nil
}

func (t *memOrdersTx) CreateOrderDetails(ctx context.Context, details []domain.OrderDetail) error {
	if t.repo.failCreateDetails != nil {
		return t.repo.failCreateDetails
	}
	for _, d := range details {
		d.OrderDetailID = uint64(len(t.state.details) + 1)
		t.state.details = append(t.state.details, d)
	}
	return nil
}

func (t *memOrdersTx) DecrementStock(ctx context.Context, productID uint64, quantity int) error {
	p, ok := t.state.products[productID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if p.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	t.state.products[productID] = p
	return nil
}

func (t *memOrdersTx) FindOrderForStore(ctx context.Context, orderID, storeID uint64) (domain.Order, error) {
	o, ok := t.state.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrRecordNotFound
	}
	for _, d := range t.state.details {
		if d.OrderID == orderID && d.StoreID == storeID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrRecordNotFound
}

func (t *memOrdersTx) UpdateFulfillment(ctx context.Context, order *domain.Order) error {
	if _, ok := t.state.orders[order.OrderID]; !ok {
		return errors.New("order vanished")
	}
	t.state.orders[order.OrderID] = *order
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, toName, toEmail, subject, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, toEmail)
	return nil
}
