package postgres

import (
	"context"
	"time"

	"ravello/business/user"
	"ravello/domain"

	"gorm.io/gorm"
)

// OTPRepository stores one-time codes and pending registrations.
type OTPRepository struct {
	DB *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{
		DB: db,
	}
}

func (r *OTPRepository) WithinTx(ctx context.Context, fn func(tx user.RegistrationTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&registrationTx{db: tx})
	})
}

func (r *OTPRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tempIDs []uint64
		if err := tx.Model(&domain.OTPVerification{}).
			Where("otp_expire < ? AND temp_reg_id IS NOT NULL", now).
			Pluck("temp_reg_id", &tempIDs).Error; err != nil {
			return err
		}

		res := tx.Where("otp_expire < ?", now).Delete(&domain.OTPVerification{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected

		if len(tempIDs) > 0 {
			if err := tx.Where("temp_id IN ?", tempIDs).Delete(&domain.TempRegistration{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}

	return purged, nil
}

type registrationTx struct {
	db *gorm.DB
}

func (t *registrationTx) ClientExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(&domain.Client{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (t *registrationTx) CreateClient(ctx context.Context, client *domain.Client) error {
	return translate(t.db.WithContext(ctx).Create(client).Error)
}

func (t *registrationTx) CreatePending(ctx context.Context, pending *domain.TempRegistration) error {
	return translate(t.db.WithContext(ctx).Create(pending).Error)
}

func (t *registrationTx) FindPending(ctx context.Context, tempID uint64) (domain.TempRegistration, error) {
	var pending domain.TempRegistration
	if err := t.db.WithContext(ctx).First(&pending, tempID).Error; err != nil {
		return domain.TempRegistration{}, translate(err)
	}
	return pending, nil
}

func (t *registrationTx) DeletePending(ctx context.Context, tempID uint64) error {
	return translate(t.db.WithContext(ctx).Delete(&domain.TempRegistration{}, tempID).Error)
}

func (t *registrationTx) DeletePendingByEmail(ctx context.Context, email string) error {
	return translate(t.db.WithContext(ctx).Where("email = ?", email).Delete(&domain.TempRegistration{}).Error)
}

func (t *registrationTx) CreateCode(ctx context.Context, code *domain.OTPVerification) error {
	return translate(t.db.WithContext(ctx).Create(code).Error)
}

func (t *registrationTx) FindCode(ctx context.Context, email, code string, purpose domain.OTPPurpose) (domain.OTPVerification, error) {
	var otp domain.OTPVerification
	err := t.db.WithContext(ctx).
		Where("email = ? AND otp = ? AND purpose = ?", email, code, purpose).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		return domain.OTPVerification{}, translate(err)
	}
	return otp, nil
}

func (t *registrationTx) DeleteCodes(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return translate(t.db.WithContext(ctx).Where("email = ? AND purpose = ?", email, purpose).Delete(&domain.OTPVerification{}).Error)
}
