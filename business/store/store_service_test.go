//go:build !integration

package store

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"ravello/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStoreRepo struct {
	mu         sync.Mutex
	stores     map[uint64]domain.Store
	clients    map[uint64]domain.Client
	report     []domain.MonthlyReport
	promoteErr error
}

func newMemStoreRepo() *memStoreRepo {
	return &memStoreRepo{
		stores:  map[uint64]domain.Store{},
		clients: map[uint64]domain.Client{1: {ClientID: 1, Name: "Rina", Role: domain.RoleUser}},
	}
}

func (r *memStoreRepo) WithinTx(ctx context.Context, fn func(tx StoreTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memStoreTx{repo: r, stores: maps.Clone(r.stores), clients: maps.Clone(r.clients)}
	if err := fn(tx); err != nil {
		return err
	}
	r.stores, r.clients = tx.stores, tx.clients
	return nil
}

func (r *memStoreRepo) FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return findByOwner(r.stores, clientID)
}

func (r *memStoreRepo) FindProfile(ctx context.Context, storeID uint64) (domain.StoreProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stores[storeID]
	if !ok {
		return domain.StoreProfile{}, domain.ErrRecordNotFound
	}
	return domain.StoreProfile{
		StoreID:     st.StoreID,
		StoreName:   st.StoreName,
		Description: st.Description,
		Address:     st.Address,
		OwnerName:   r.clients[st.ClientID].Name,
		OwnerID:     st.ClientID,
	}, nil
}

func (r *memStoreRepo) Update(ctx context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[store.StoreID] = *store
	return nil
}

func (r *memStoreRepo) MonthlyReport(ctx context.Context, storeID uint64, year int) ([]domain.MonthlyReport, error) {
	return r.report, nil
}

func findByOwner(stores map[uint64]domain.Store, clientID uint64) (domain.Store, error) {
	for _, st := range stores {
		if st.ClientID == clientID {
			return st, nil
		}
	}
	return domain.Store{}, domain.ErrRecordNotFound
}

type memStoreTx struct {
	repo    *memStoreRepo
	stores  map[uint64]domain.Store
	clients map[uint64]domain.Client
}

func (t *memStoreTx) FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error) {
	return findByOwner(t.stores, clientID)
}

func (t *memStoreTx) Create(ctx context.Context, store *domain.Store) error {
	store.StoreID = uint64(len(t.stores) + 100)
	t.stores[store.StoreID] = *store
	return nil
}

func (t *memStoreTx) PromoteToSeller(ctx context.Context, clientID, storeID uint64) error {
	if t.repo.promoteErr != nil {
		return t.repo.promoteErr
	}
	c, ok := t.clients[clientID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	c.Role = domain.RoleSeller
	c.StoreID = &storeID
	t.clients[clientID] = c
	return nil
}

func TestCreateStore_PromotesOwner(t *testing.T) {
	repo := newMemStoreRepo()
	svc := NewStoreService(repo)

	store, err := svc.CreateStore(context.Background(), 1, StoreInput{StoreName: " Toko Rina ", Address: "Bandung"})
	require.NoError(t, err)
	assert.Equal(t, "Toko Rina", store.StoreName)
	assert.Equal(t, domain.RoleSeller, repo.clients[1].Role)
	assert.Equal(t, store.StoreID, *repo.clients[1].StoreID)

	_, err = svc.CreateStore(context.Background(), 1, StoreInput{StoreName: "Kedua"})
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Len(t, repo.stores, 1)
}

func TestCreateStore_RollsBackWhenPromotionFails(t *testing.T) {
	repo := newMemStoreRepo()
	repo.promoteErr = errors.New("deadlock detected")
	svc := NewStoreService(repo)

	_, err := svc.CreateStore(context.Background(), 1, StoreInput{StoreName: "Toko"})
	assert.True(t, domain.IsKind(err, domain.KindStorage))
	assert.Empty(t, repo.stores)
	assert.Equal(t, domain.RoleUser, repo.clients[1].Role)
}

func TestResolveOwnedStore(t *testing.T) {
	repo := newMemStoreRepo()
	repo.stores[7] = domain.Store{StoreID: 7, ClientID: 1, StoreName: "Toko"}
	svc := NewStoreService(repo)

	store, err := svc.ResolveOwnedStore(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), store.StoreID)

	_, err = svc.ResolveOwnedStore(context.Background(), 2)
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))
}

func TestUpdateStoreAndProfile(t *testing.T) {
	repo := newMemStoreRepo()
	repo.stores[7] = domain.Store{StoreID: 7, ClientID: 1, StoreName: "Toko"}
	svc := NewStoreService(repo)

	_, err := svc.UpdateStore(context.Background(), 1, StoreInput{StoreName: "Baru"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.UpdateStore(context.Background(), 2, StoreInput{StoreName: "Baru", Description: "d", Address: "a"})
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))

	_, err = svc.UpdateStore(context.Background(), 1, StoreInput{StoreName: "Baru", Description: "d", Address: "a"})
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Baru", profile.StoreName)
	assert.Equal(t, "Rina", profile.OwnerName)

	_, err = svc.GetProfile(context.Background(), 2)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestReport(t *testing.T) {
	repo := newMemStoreRepo()
	repo.stores[7] = domain.Store{StoreID: 7, ClientID: 1}
	repo.report = []domain.MonthlyReport{{Month: 3, TotalProductsSold: 4, MonthlyRevenue: decimal.NewFromInt(100000)}}
	svc := NewStoreService(repo)

	report, err := svc.Report(context.Background(), 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), report.StoreID)
	assert.Equal(t, 2025, report.Year)
	require.Len(t, report.Report, 1)

	_, err = svc.Report(context.Background(), 2, 2025)
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))

	_, err = svc.Report(context.Background(), 1, -1)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
