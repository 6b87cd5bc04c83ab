//go:build !integration

package cart

import (
	"context"
	"testing"
	"time"

	"ravello/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCart struct {
	products map[uint64]domain.Product
	lines    []domain.Cart
}

func (m *memCart) FindByID(ctx context.Context, id uint64) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrRecordNotFound
	}
	return p, nil
}

func (m *memCart) AddOrIncrement(ctx context.Context, clientID, productID uint64) (domain.CartAddResult, error) {
	for i, l := range m.lines {
		if l.ClientID == clientID && l.ProductID == productID {
			m.lines[i].Quantity++
			return domain.CartAddResult{CartID: l.CartID}, nil
		}
	}
	id := uint64(len(m.lines) + 1)
	m.lines = append(m.lines, domain.Cart{CartID: id, ClientID: clientID, ProductID: productID, Quantity: 1, AddedDate: time.Now()})
	return domain.CartAddResult{CartID: id, Created: true}, nil
}

func (m *memCart) ListByClient(ctx context.Context, clientID uint64) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, l := range m.lines {
		if l.ClientID == clientID {
			p := m.products[l.ProductID]
			out = append(out, domain.CartItem{CartID: l.CartID, Quantity: l.Quantity, ProductID: p.ProductID, ProductName: p.ProductName, Price: p.Price})
		}
	}
	return out, nil
}

func (m *memCart) DeleteOwned(ctx context.Context, cartID, clientID uint64) (int64, error) {
	for i, l := range m.lines {
		if l.CartID == cartID && l.ClientID == clientID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memCart) Summary(ctx context.Context, clientID uint64) (domain.CartSummary, error) {
	sum := domain.CartSummary{TotalPrice: decimal.Zero}
	for _, l := range m.lines {
		if l.ClientID == clientID {
			sum.TotalQuantity += int64(l.Quantity)
			sum.TotalPrice = sum.TotalPrice.Add(m.products[l.ProductID].Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return sum, nil
}

func TestCart(t *testing.T) {
	repo := &memCart{products: map[uint64]domain.Product{
		1: {ProductID: 1, ProductName: "Kopi", Price: decimal.RequireFromString("10000")},
		2: {ProductID: 2, ProductName: "Teh", Price: decimal.RequireFromString("2500.50")},
	}}
	svc := NewCartService(repo, repo)
	ctx := context.Background()

	empty, err := svc.CartSummary(ctx, 5)
	require.NoError(t, err)
	assert.True(t, empty.TotalPrice.IsZero())
	assert.Zero(t, empty.TotalQuantity)

	first, err := svc.AddToCart(ctx, 5, 1)
	require.NoError(t, err)
	assert.True(t, first.Created)

	again, err := svc.AddToCart(ctx, 5, 1)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.CartID, again.CartID)

	_, err = svc.AddToCart(ctx, 5, 2)
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, 5, 99)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	items, err := svc.ListCart(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)

	sum, err := svc.CartSummary(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "22500.5", sum.TotalPrice.String())
	assert.Equal(t, int64(3), sum.TotalQuantity)

	err = svc.RemoveFromCart(ctx, 6, first.CartID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	require.NoError(t, svc.RemoveFromCart(ctx, 5, first.CartID))
	items, err = svc.ListCart(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
