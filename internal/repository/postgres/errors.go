package postgres

import (
	"errors"
	"fmt"

	"ravello/domain"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the domain sentinels. The connection is
// opened with TranslateError so driver specific codes never reach here.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", domain.ErrForeignKey, err)
	}
	return err
}
