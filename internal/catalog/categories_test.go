package catalog

import (
	"context"
	"testing"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/models"
	"car-rental-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("Plug-in Hybrid"), Type: testutil.Ptr(models.CategoryFuelType),
	})
	require.NoError(t, err)
	assert.Equal(t, "plug-in-hybrid", c.Slug)
	assert.False(t, c.Featured)

	_, err = f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("Boat"), Type: testutil.Ptr("vessel"),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "type must be one of: carType, fuelType, tag")
}

func TestUpdateCategory_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("SUV"), Type: testutil.Ptr(models.CategoryCarType),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateCategory(ctx, c.ID, models.CategoryInput{Type: testutil.Ptr("boat")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := f.svc.UpdateCategory(ctx, c.ID, models.CategoryInput{Type: testutil.Ptr(models.CategoryTag)})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTag, got.Type)
	assert.Equal(t, "SUV", got.Name)

	_, err = f.svc.UpdateCategory(ctx, "missing", models.CategoryInput{Featured: testutil.Ptr(true)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCategoriesByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for name, typ := range map[string]string{"SUV": models.CategoryCarType, "Diesel": models.CategoryFuelType, "Luxury": models.CategoryTag} {
		_, err := f.svc.CreateCategory(ctx, models.CategoryInput{Name: testutil.Ptr(name), Type: testutil.Ptr(typ)})
		require.NoError(t, err)
	}

	cats, err := f.svc.CategoriesByType(ctx, models.CategoryFuelType)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Diesel", cats[0].Name)

	_, err = f.svc.CategoriesByType(ctx, "boat")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateCategory(ctx, models.CategoryInput{Name: testutil.Ptr("SUV"), Type: testutil.Ptr(models.CategoryCarType)})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCategory(ctx, c.ID))
	err = f.svc.DeleteCategory(ctx, c.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
