package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"
)

type StoreTx interface {
	FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error)
	Create(ctx context.Context, store *domain.Store) error
	// PromoteToSeller sets role seller and store_id on the owning client.
	PromoteToSeller(ctx context.Context, clientID, storeID uint64) error
}

// StoreRepository contract interface
type StoreRepository interface {
	WithinTx(ctx context.Context, fn func(tx StoreTx) error) error
	FindByOwner(ctx context.Context, clientID uint64) (domain.Store, error)
	FindProfile(ctx context.Context, storeID uint64) (domain.StoreProfile, error)
	Update(ctx context.Context, store *domain.Store) error
	// MonthlyReport aggregates completed order lines of the store, one row
	// per month that had sales, ordered by month.
	MonthlyReport(ctx context.Context, storeID uint64, year int) ([]domain.MonthlyReport, error)
}

type StoreService struct {
	storeRepo StoreRepository
	now       func() time.Time
}

func NewStoreService(storeRepo StoreRepository) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
		now:       time.Now,
	}
}

// ResolveOwnedStore returns the store owned by clientID. Clients without a
// store are refused with an authorization error.
func (s *StoreService) ResolveOwnedStore(ctx context.Context, clientID uint64) (domain.Store, error) {
	store, err := s.storeRepo.FindByOwner(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Store{}, domain.NewAuthorizationError("access denied, you do not own a store")
		}
		logger.Error("Failed to resolve store owner", err)
		return domain.Store{}, domain.NewStorageError("failed to verify store ownership", err)
	}

	return store, nil
}

type StoreInput struct {
	StoreName   string
	Description string
	Address     string
}

func (in StoreInput) trimmed() StoreInput {
	return StoreInput{
		StoreName:   strings.TrimSpace(in.StoreName),
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
	}
}

// CreateStore opens the single store a client may own and promotes the
// client to seller in the same transaction.
func (s *StoreService) CreateStore(ctx context.Context, clientID uint64, in StoreInput) (domain.Store, error) {
	in = in.trimmed()
	if in.StoreName == "" {
		return domain.Store{}, domain.NewValidationError("store_name is required")
	}

	var created domain.Store

	err := s.storeRepo.WithinTx(ctx, func(tx StoreTx) error {
		_, err := tx.FindByOwner(ctx, clientID)
		if err == nil {
			return domain.NewConflictError("you may only register one store")
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewStorageError("failed to check existing store", err)
		}

		store := domain.Store{
			ClientID:    clientID,
			StoreName:   in.StoreName,
			Description: in.Description,
			Address:     in.Address,
			CreatedAt:   s.now(),
		}
		if err := tx.Create(ctx, &store); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return domain.NewConflictError("you may only register one store")
			}
			return domain.NewStorageError("failed to create store", err)
		}

		if err := tx.PromoteToSeller(ctx, clientID, store.StoreID); err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewNotFoundError("client not found")
			}
			return domain.NewStorageError("failed to promote client", err)
		}

		created = store
		return nil
	})
	if err != nil {
		var de *domain.Error
		if !errors.As(err, &de) {
			err = domain.NewStorageError("failed to create store", err)
		}
		logger.Warn("Store creation rejected", "client_id", clientID, "error", err)
		return domain.Store{}, err
	}

	logger.Info("Store created", "store_id", created.StoreID, "owner_id", clientID)
	return created, nil
}

func (s *StoreService) GetProfile(ctx context.Context, clientID uint64) (domain.StoreProfile, error) {
	store, err := s.ResolveOwnedStore(ctx, clientID)
	if err != nil {
		if domain.IsKind(err, domain.KindAuthorization) {
			return domain.StoreProfile{}, domain.NewNotFoundError("store not found, please register a store first")
		}
		return domain.StoreProfile{}, err
	}

	profile, err := s.storeRepo.FindProfile(ctx, store.StoreID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.StoreProfile{}, domain.NewNotFoundError("store not found")
		}
		logger.Error("Failed to load store profile", err)
		return domain.StoreProfile{}, domain.NewStorageError("failed to load store profile", err)
	}

	return profile, nil
}

func (s *StoreService) UpdateStore(ctx context.Context, clientID uint64, in StoreInput) (domain.Store, error) {
	in = in.trimmed()
	if in.StoreName == "" || in.Description == "" || in.Address == "" {
		return domain.Store{}, domain.NewValidationError("store_name, description and address are required")
	}

	store, err := s.ResolveOwnedStore(ctx, clientID)
	if err != nil {
		return domain.Store{}, err
	}

	store.StoreName = in.StoreName
	store.Description = in.Description
	store.Address = in.Address

	if err := s.storeRepo.Update(ctx, &store); err != nil {
		logger.Error("Failed to update store", err)
		return domain.Store{}, domain.NewStorageError("failed to update store", err)
	}

	return store, nil
}

// Report sums completed sales of the caller's store per month of year. A zero
// year means the current one.
func (s *StoreService) Report(ctx context.Context, clientID uint64, year int) (domain.StoreReport, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 1970 || year > 9999 {
		return domain.StoreReport{}, domain.NewValidationError("invalid year")
	}

	store, err := s.ResolveOwnedStore(ctx, clientID)
	if err != nil {
		return domain.StoreReport{}, err
	}

	rows, err := s.storeRepo.MonthlyReport(ctx, store.StoreID, year)
	if err != nil {
		logger.Error("Store report error", err)
		return domain.StoreReport{}, domain.NewStorageError("failed to load store report", err)
	}
	if rows == nil {
		rows = []domain.MonthlyReport{}
	}

	return domain.StoreReport{
		StoreID: store.StoreID,
		Year:    year,
		Report:  rows,
	}, nil
}
