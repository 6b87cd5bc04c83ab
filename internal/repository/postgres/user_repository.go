package postgres

import (
	"context"

	"ravello/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (domain.Client, error) {
	var client domain.Client

	if err := r.DB.WithContext(ctx).First(&client, id).Error; err != nil {
		return domain.Client{}, translate(err)
	}

	return client, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.Client, error) {
	var client domain.Client

	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&client).Error
	if err != nil {
		return domain.Client{}, translate(err)
	}

	return client, nil
}

// FindLoginByEmail loads the client together with the store it owns.
func (r *UserRepository) FindLoginByEmail(ctx context.Context, email string) (domain.ClientLogin, error) {
	var login domain.ClientLogin

	res := r.DB.WithContext(ctx).
		Table("client c").
		Select("c.client_id, c.name, c.email, c.password, c.role, s.store_id, s.store_name").
		Joins("LEFT JOIN store s ON s.client_id = c.client_id").
		Where("c.email = ?", email).
		Limit(1).
		Scan(&login)
	if res.Error != nil {
		return domain.ClientLogin{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ClientLogin{}, domain.ErrRecordNotFound
	}

	return login, nil
}

// UpdateProfile writes only the fields present in update and returns the
// stored row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, update domain.ProfileUpdate) (domain.Client, error) {
	values := map[string]any{}
	if update.Name != nil {
		values["name"] = *update.Name
	}
	if update.Email != nil {
		values["email"] = *update.Email
	}
	if update.PhoneNumber != nil {
		values["phone_number"] = *update.PhoneNumber
	}
	if update.Bio != nil {
		values["bio"] = *update.Bio
	}
	if update.Address != nil {
		values["address"] = *update.Address
	}

	var client domain.Client
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Client{}).Where("client_id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&client, id).Error
	})
	if err != nil {
		return domain.Client{}, translate(err)
	}

	return client, nil
}

// UpdatePassword only applies while the stored credential is still
// currentHash, so two resets racing on one ticket cannot both succeed.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, currentHash, newHash string) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.Client{}).
		Where("email = ? AND password = ?", email, currentHash).
		Update("password", newHash)
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
