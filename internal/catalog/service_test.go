package catalog

import (
	"context"
	"errors"
	"testing"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/models"
	"car-rental-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc   *Service
	store *testutil.MemStore
	index *testutil.MemIndex
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := testutil.NewMemStore()
	index := testutil.NewMemIndex()
	svc := NewService(Options{
		Store:  store,
		Search: index,
		Syncer: NewSyncer(index, store, log),
		Cache:  cache.NewMemory(),
		Logger: log,
	})
	return fixture{svc: svc, store: store, index: index}
}

func validCar() models.CarInput {
	return models.CarInput{
		Brand:        testutil.Ptr("Lamborghini"),
		Model:        testutil.Ptr("LP 780-4"),
		Name:         testutil.Ptr("Aventador"),
		Year:         testutil.Ptr(2022),
		Transmission: testutil.Ptr("Automatic"),
		Fuel:         testutil.Ptr("Petrol"),
		DailyPrice:   testutil.Ptr(5000.0),
	}
}

func carNamed(name, brand string, price float64) models.CarInput {
	in := validCar()
	in.Name = &name
	in.Brand = &brand
	in.DailyPrice = &price
	return in
}

func mustCreateCar(t *testing.T, f fixture, in models.CarInput) models.Car {
	t.Helper()
	car, err := f.svc.CreateCar(context.Background(), in)
	require.NoError(t, err)
	return car
}

func TestCreateCar_MissingRequiredFieldNoWrite(t *testing.T) {
	drop := map[string]func(*models.CarInput){
		"name":         func(in *models.CarInput) { in.Name = nil },
		"brand":        func(in *models.CarInput) { in.Brand = nil },
		"model":        func(in *models.CarInput) { in.Model = nil },
		"year":         func(in *models.CarInput) { in.Year = nil },
		"transmission": func(in *models.CarInput) { in.Transmission = nil },
		"fuel":         func(in *models.CarInput) { in.Fuel = nil },
		"dailyPrice":   func(in *models.CarInput) { in.DailyPrice = nil },
		"blank name":   func(in *models.CarInput) { in.Name = testutil.Ptr("  ") },
	}
	for name, mutate := range drop {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			in := validCar()
			mutate(&in)

			_, err := f.svc.CreateCar(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Zero(t, f.store.Writes)
			assert.Empty(t, f.index.Records())
		})
	}
}

func TestCreateCar_AggregatesMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCar(context.Background(), models.CarInput{Name: testutil.Ptr("Roma")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required fields: ")
	assert.Contains(t, err.Error(), "dailyPrice")
}

func TestCreateCar_RoundTripDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateCar(t, f, validCar())
	require.NotEmpty(t, created.ID)

	got, err := f.svc.GetCar(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aventador", got.Name)
	assert.Equal(t, "Lamborghini", got.Brand)
	assert.Equal(t, 2022, got.Year)
	assert.Equal(t, 5000.0, got.DailyPrice)
	assert.True(t, got.IsAvailable)
	assert.False(t, got.IsFeatured)
	assert.Zero(t, got.Mileage)
	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, []string{}, got.Features)

	rec, ok := f.index.Records()[created.ID]
	require.True(t, ok)
	assert.Equal(t, "Lamborghini Aventador", rec.Name)
}

func TestCreateCar_SyncFailureKeepsStoreWrite(t *testing.T) {
	f := newFixture(t)
	f.index.WriteErr = errors.New("index unavailable")

	car, err := f.svc.CreateCar(context.Background(), validCar())
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "upsert", syncErr.Op)
	require.NotEmpty(t, car.ID)

	_, err = f.svc.GetCar(context.Background(), car.ID)
	assert.NoError(t, err)
}

func TestCreateCar_StoreFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("connection refused")

	_, err := f.svc.CreateCar(context.Background(), validCar())
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestGetCar_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetCar(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := mustCreateCar(t, f, validCar())

	t.Run("merges present fields", func(t *testing.T) {
		got, err := f.svc.UpdateCar(ctx, car.ID, models.CarInput{DailyPrice: testutil.Ptr(5500.0)})
		require.NoError(t, err)
		assert.Equal(t, 5500.0, got.DailyPrice)
		assert.Equal(t, "Aventador", got.Name)
		assert.Equal(t, car.ID, got.ID)
		assert.True(t, got.UpdatedAt.After(car.UpdatedAt))
		assert.Equal(t, 5500.0, f.index.Records()[car.ID].DailyPrice)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := f.svc.UpdateCar(ctx, car.ID, models.CarInput{DailyPrice: testutil.Ptr(-1.0)})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := f.svc.UpdateCar(ctx, car.ID, models.CarInput{Name: testutil.Ptr("")})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.svc.UpdateCar(ctx, "missing", models.CarInput{DailyPrice: testutil.Ptr(1.0)})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestDeleteCar_RemovesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := mustCreateCar(t, f, validCar())

	require.NoError(t, f.svc.DeleteCar(ctx, car.ID))
	assert.Empty(t, f.index.Records())

	err := f.svc.DeleteCar(ctx, car.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListCars_PriceBoundsInclusive(t *testing.T) {
	f := newFixture(t)
	for _, p := range []float64{999, 1000, 5000, 10000, 10001} {
		mustCreateCar(t, f, carNamed("Car", "Brand", p))
	}

	page, err := f.svc.ListCars(context.Background(), models.CarFilter{
		MinPrice: testutil.Ptr(1000.0),
		MaxPrice: testutil.Ptr(10000.0),
	})
	require.NoError(t, err)
	require.Len(t, page.Cars, 3)
	assert.Equal(t, 3, page.Total)
	for i, want := range []float64{1000, 5000, 10000} {
		assert.Equal(t, want, page.Cars[i].DailyPrice)
	}
}

func TestListCars_EqualityThenPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		mustCreateCar(t, f, carNamed("Huracan", "Lamborghini", float64(1000+i)))
	}
	mustCreateCar(t, f, carNamed("Roma", "Ferrari", 2000))

	ctx := context.Background()
	first, err := f.svc.ListCars(ctx, models.CarFilter{CarQuery: models.CarQuery{Brand: "Lamborghini"}, Page: 1})
	require.NoError(t, err)
	assert.Len(t, first.Cars, PageSize)
	assert.Equal(t, 15, first.Total)

	second, err := f.svc.ListCars(ctx, models.CarFilter{CarQuery: models.CarQuery{Brand: "Lamborghini"}, Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Cars, 3)
	assert.Equal(t, 1012.0, second.Cars[0].DailyPrice)

	past, err := f.svc.ListCars(ctx, models.CarFilter{CarQuery: models.CarQuery{Brand: "Lamborghini"}, Page: 3})
	require.NoError(t, err)
	assert.Empty(t, past.Cars)
}

func TestCarsByType_ResolvesCategoryName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("Sports Car"), Type: testutil.Ptr(models.CategoryCarType),
	})
	require.NoError(t, err)

	in := validCar()
	in.Category = testutil.Ptr("Sports Car")
	mustCreateCar(t, f, in)
	mustCreateCar(t, f, carNamed("Urus", "Lamborghini", 3000))

	for _, q := range []string{"sports-car", "SPORTS CAR", "Sports Car"} {
		cars, err := f.svc.CarsByType(ctx, q)
		require.NoError(t, err)
		require.Len(t, cars, 1, q)
		assert.Equal(t, "Aventador", cars[0].Name)
	}

	cars, err := f.svc.CarsByType(ctx, "Convertible")
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestCarsByFuel_ResolvesSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("Electric"), Type: testutil.Ptr(models.CategoryFuelType),
	})
	require.NoError(t, err)

	in := carNamed("Taycan", "Porsche", 2500)
	in.Fuel = testutil.Ptr("Electric")
	mustCreateCar(t, f, in)
	mustCreateCar(t, f, validCar())

	cars, err := f.svc.CarsByFuel(ctx, "electric")
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Taycan", cars[0].Name)
}

func TestFeaturedCars_CachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validCar()
	in.IsFeatured = testutil.Ptr(true)
	mustCreateCar(t, f, in)

	cars, err := f.svc.FeaturedCars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 1)

	// Served from cache while the store is down.
	f.store.Err = errors.New("down")
	cars, err = f.svc.FeaturedCars(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 1)
	f.store.Err = nil

	in.Name = testutil.Ptr("Revuelto")
	mustCreateCar(t, f, in)

	cars, err = f.svc.FeaturedCars(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 2)
}

func TestCached_NotFilledAfterCancel(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBrand(context.Background(), models.BrandInput{
		Name: testutil.Ptr("Audi"), Logo: testutil.Ptr("audi.png"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.ListBrands(ctx)
	require.NoError(t, err)

	f.store.Err = errors.New("down")
	_, err = f.svc.ListBrands(context.Background())
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestFeaturedLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		in := validCar()
		in.IsFeatured = testutil.Ptr(true)
		mustCreateCar(t, f, in)

		name := string(rune('A' + i))
		_, err := f.svc.CreateBrand(ctx, models.BrandInput{
			Name: &name, Logo: testutil.Ptr("logo.png"), Featured: testutil.Ptr(true),
		})
		require.NoError(t, err)
	}

	cars, err := f.svc.FeaturedCars(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, FeaturedCarsLimit)

	brands, err := f.svc.FeaturedBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, FeaturedBrandsLimit)
	assert.Equal(t, "A", brands[0].Name)
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	featured := validCar()
	featured.IsFeatured = testutil.Ptr(true)
	mustCreateCar(t, f, featured)
	unavailable := validCar()
	unavailable.IsAvailable = testutil.Ptr(false)
	mustCreateCar(t, f, unavailable)
	_, err := f.svc.CreateBrand(ctx, models.BrandInput{Name: testutil.Ptr("Lamborghini"), Logo: testutil.Ptr("l.png")})
	require.NoError(t, err)

	a, err := f.svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Analytics{
		TotalCars: 2, TotalBrands: 1, TotalCategories: 0, AvailableCars: 1, FeaturedCars: 1,
	}, a)

	f.store.Err = errors.New("down")
	_, err = f.svc.Analytics(ctx)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestLanding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validCar()
	in.IsFeatured = testutil.Ptr(true)
	mustCreateCar(t, f, in)
	_, err := f.svc.CreateCategory(ctx, models.CategoryInput{
		Name: testutil.Ptr("SUV"), Type: testutil.Ptr(models.CategoryCarType), Featured: testutil.Ptr(true),
	})
	require.NoError(t, err)

	l, err := f.svc.Landing(ctx)
	require.NoError(t, err)
	assert.Len(t, l.FeaturedCars, 1)
	assert.Empty(t, l.FeaturedBrands)
	assert.Len(t, l.FeaturedCategories, 1)
}
