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

func createBrand(t *testing.T, f fixture, name string) models.Brand {
	t.Helper()
	b, err := f.svc.CreateBrand(context.Background(), models.BrandInput{
		Name: &name, Logo: testutil.Ptr(name + ".png"),
	})
	require.NoError(t, err)
	return b
}

func TestCreateBrand_DerivesSlug(t *testing.T) {
	f := newFixture(t)
	b := createBrand(t, f, "Rolls Royce")
	assert.Equal(t, "rolls-royce", b.Slug)
	assert.False(t, b.Featured)

	got, err := f.svc.BrandBySlug(context.Background(), "rolls-royce")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.BrandBySlug(context.Background(), "bentley")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateBrand_MissingLogo(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBrand(context.Background(), models.BrandInput{Name: testutil.Ptr("Audi")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Missing required field: logo")
	assert.Zero(t, f.store.Writes)
}

func TestDeleteBrand_ReferencedByCarsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := createBrand(t, f, "Lamborghini")
	mustCreateCar(t, f, carNamed("Aventador", "Lamborghini", 5000))
	mustCreateCar(t, f, carNamed("Urus", "Lamborghini", 3000))

	err := f.svc.DeleteBrand(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), `Cannot delete brand "Lamborghini". There are 2 cars associated with this brand.`)

	_, err = f.svc.GetBrand(ctx, b.ID)
	assert.NoError(t, err, "brand must still exist")
}

func TestDeleteBrand_Unreferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := createBrand(t, f, "Bugatti")
	mustCreateCar(t, f, carNamed("Aventador", "Lamborghini", 5000))

	require.NoError(t, f.svc.DeleteBrand(ctx, b.ID))
	_, err := f.svc.GetBrand(ctx, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = f.svc.DeleteBrand(ctx, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateBrand_RenameDoesNotCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := createBrand(t, f, "Lambo")
	car := mustCreateCar(t, f, carNamed("Aventador", "Lambo", 5000))

	updated, err := f.svc.UpdateBrand(ctx, b.ID, models.BrandInput{Name: testutil.Ptr("Lamborghini")})
	require.NoError(t, err)
	assert.Equal(t, "Lamborghini", updated.Name)

	got, err := f.svc.GetCar(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lambo", got.Brand)
}

func TestListBrands_CacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createBrand(t, f, "Porsche")

	brands, err := f.svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)

	createBrand(t, f, "Audi")
	brands, err = f.svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Audi", brands[0].Name)
}

func TestDedupeBrands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := createBrand(t, f, "Ferrari")
	createBrand(t, f, "Porsche")
	dup := createBrand(t, f, " Ferrari ")

	dupes, err := f.svc.DedupeBrands(ctx, true)
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, dup.ID, dupes[0].ID)
	brands, err := f.svc.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 3, "dry run deletes nothing")

	_, err = f.svc.DedupeBrands(ctx, false)
	require.NoError(t, err)
	brands, err = f.svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)

	_, err = f.svc.GetBrand(ctx, first.ID)
	assert.NoError(t, err, "earliest brand is kept")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Rolls Royce":     "rolls-royce",
		"Mercedes-Benz":   "mercedes-benz",
		"Aston  Martin!!": "aston-martin-",
		"SUV":             "suv",
		"4x4 / Off-Road":  "4x4-off-road",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
