package postgres

import (
	"context"

	"ravello/business/store"
	"ravello/domain"

	"gorm.io/gorm"
)

type StoreRepository struct {
	DB *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{
		DB: db,
	}
}

func (r *StoreRepository) WithinTx(ctx context.Context, fn func(tx store.StoreTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeTx{db: tx})
	})
}

func (r *StoreRepository) FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error) {
	return findStoreByOwner(r.DB.WithContext(ctx), clientID)
}

func (r *StoreRepository) FindProfile(ctx context.Context, storeID uint64) (domain.StoreProfile, error) {
	var profile domain.StoreProfile

	res := r.DB.WithContext(ctx).
		Table("store s").
		Select("s.store_id, s.store_name, s.description, s.address, c.name AS owner_name, c.client_id AS owner_id").
		Joins("JOIN client c ON c.client_id = s.client_id").
		Where("s.store_id = ?", storeID).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return domain.StoreProfile{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.StoreProfile{}, domain.ErrRecordNotFound
	}

	return profile, nil
}

func (r *StoreRepository) Update(ctx context.Context, st *domain.Store) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.Store{}).
		Where("store_id = ?", st.StoreID).
		Updates(map[string]any{
			"store_name":  st.StoreName,
			"description": st.Description,
			"address":     st.Address,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (r *StoreRepository) MonthlyReport(ctx context.Context, storeID uint64, year int) ([]domain.MonthlyReport, error) {
	rows := []domain.MonthlyReport{}

	err := r.DB.WithContext(ctx).
		Table("orders o").
		Select(`CAST(EXTRACT(MONTH FROM o.order_date) AS INTEGER) AS month,
			COALESCE(SUM(od.quantity), 0) AS total_products_sold,
			COALESCE(SUM(od.unit_price * od.quantity), 0) AS monthly_revenue`).
		Joins("JOIN order_detail od ON od.order_id = o.order_id").
		Where("od.store_id = ?", storeID).
		Where("EXTRACT(YEAR FROM o.order_date) = ?", year).
		Where("o.status = ?", domain.StatusCompleted).
		Group("month").
		Order("month").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	return rows, nil
}

func findStoreByOwner(db *gorm.DB, clientID uint64) (domain.Store, error) {
	var st domain.Store
	if err := db.Where("client_id = ?", clientID).First(&st).Error; err != nil {
		return domain.Store{}, translate(err)
	}
	return st, nil
}

type storeTx struct {
	db *gorm.DB
}

func (t *storeTx) FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error) {
	return findStoreByOwner(t.db.WithContext(ctx), clientID)
}

func (t *storeTx) Create(ctx context.Context, st *domain.Store) error {
	return translate(t.db.WithContext(ctx).Create(st).Error)
}

func (t *storeTx) PromoteToSeller(ctx context.Context, clientID, storeID uint64) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Client{}).
		Where("client_id = ?", clientID).
		Updates(map[string]any{
			"role":     domain.RoleSeller,
			"store_id": storeID,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
