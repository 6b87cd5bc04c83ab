//go:build !integration

package category

import (
	"context"
	"testing"

	"ravello/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCategoryRepo struct {
	items []domain.Category
}

func (r *memCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range r.items {
		if c.CategoryName == category.CategoryName {
			return domain.ErrDuplicateKey
		}
	}
	category.CategoryID = uint64(len(r.items) + 1)
	r.items = append(r.items, *category)
	return nil
}

func (r *memCategoryRepo) FindAll(ctx context.Context) ([]domain.Category, error) {
	return r.items, nil
}

func TestCategories(t *testing.T) {
	svc := NewCategoryService(&memCategoryRepo{})

	c, err := svc.CreateCategory(context.Background(), "  Minuman ")
	require.NoError(t, err)
	assert.Equal(t, "Minuman", c.CategoryName)

	_, err = svc.CreateCategory(context.Background(), "Minuman")
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = svc.CreateCategory(context.Background(), " ")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	all, err := svc.GetAllCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
