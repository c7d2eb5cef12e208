package catalog

import (
	"context"
	"errors"
	"testing"

	"car-rental-catalog/internal/models"
	"car-rental-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func names(cars []models.Car) []string {
	out := make([]string, len(cars))
	for i, c := range cars {
		out[i] = c.Name
	}
	return out
}

func TestFallbackSearch_ExactNameFirst(t *testing.T) {
	cars := []models.Car{
		{Name: "Lamborghini Aventador", Brand: "Lamborghini"},
		{Name: "Aventador S", Brand: "Lamborghini"},
		{Name: "Aventador", Brand: "Lamborghini"},
	}
	got := fallbackSearch(cars, "aventador", SearchLimit)
	assert.Equal(t, []string{"Aventador", "Aventador S", "Lamborghini Aventador"}, names(got))
}

func TestFallbackSearch_PrefixBeforeBrand(t *testing.T) {
	cars := []models.Car{
		{Name: "Continental GT", Brand: "Bentley"},
		{Name: "Urus", Brand: "Huracan"},
		{Name: "Huracan EVO", Brand: "Lamborghini"},
	}
	got := fallbackSearch(cars, "  HURACAN ", SearchLimit)
	assert.Equal(t, []string{"Huracan EVO", "Urus"}, names(got))
}

func TestFallbackSearch_MatchesEveryField(t *testing.T) {
	cars := []models.Car{
		{Name: "A", Brand: "B", Model: "GTS"},
		{Name: "C", Category: "Convertible"},
		{Name: "D", Fuel: "Hybrid"},
		{Name: "E", Transmission: "Manual"},
		{Name: "F", Features: []string{"Heated seats", "Sunroof"}},
	}
	assert.Equal(t, []string{"A"}, names(fallbackSearch(cars, "gts", SearchLimit)))
	assert.Equal(t, []string{"C"}, names(fallbackSearch(cars, "convert", SearchLimit)))
	assert.Equal(t, []string{"D"}, names(fallbackSearch(cars, "hybrid", SearchLimit)))
	assert.Equal(t, []string{"E"}, names(fallbackSearch(cars, "manual", SearchLimit)))
	assert.Equal(t, []string{"F"}, names(fallbackSearch(cars, "sunroof", SearchLimit)))
}

func TestFallbackSearch_CapAndOrder(t *testing.T) {
	var cars []models.Car
	for i := 0; i < 30; i++ {
		cars = append(cars, models.Car{Name: "Model", Brand: "Tesla", Features: []string{string(rune('a' + i%26))}})
	}
	got := fallbackSearch(cars, "tesla", SearchLimit)
	require.Len(t, got, SearchLimit)
	assert.Equal(t, cars[:SearchLimit], got)

	assert.Empty(t, fallbackSearch(cars, "   ", SearchLimit))
}

func TestSearchCars_UsesHostedIndex(t *testing.T) {
	f := newFixture(t)
	mustCreateCar(t, f, validCar())

	recs, err := f.svc.SearchCars(context.Background(), "aventador")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Lamborghini Aventador", recs[0].Name)
	assert.Equal(t, 1, f.index.Searches)
}

func TestSearchCars_FallsBackOnIndexError(t *testing.T) {
	f := newFixture(t)
	mustCreateCar(t, f, carNamed("Aventador S", "Lamborghini", 6000))
	mustCreateCar(t, f, validCar())
	f.index.SearchErr = errors.New("cluster red")

	recs, err := f.svc.SearchCars(context.Background(), "aventador")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Lamborghini Aventador", recs[0].Name)
	assert.Equal(t, "Lamborghini Aventador S", recs[1].Name)
}

func TestSearchCars_WithoutIndex(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewService(Options{Store: store, Logger: zaptest.NewLogger(t)})
	_, err := svc.CreateCar(context.Background(), validCar())
	require.NoError(t, err)

	recs, err := svc.SearchCars(context.Background(), "lambo")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Unknown", recs[0].Type)

	recs, err = svc.SearchCars(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
