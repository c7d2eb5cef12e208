package catalog

import (
	"context"
	"strings"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/models"

	"go.uber.org/zap"
)

// ListCars applies the equality filters at the store, then the price bounds
// and paging in-process. Document backends cannot combine a range with
// equality constraints, so price never reaches the store.
func (s *Service) ListCars(ctx context.Context, f models.CarFilter) (models.CarPage, error) {
	cars, err := s.store.ListCars(ctx, f.CarQuery)
	if err != nil {
		return models.CarPage{}, apperr.Upstream("Failed to fetch cars", err)
	}
	cars = filterByPrice(cars, f.MinPrice, f.MaxPrice)

	page := models.CarPage{Cars: cars, Total: len(cars), Page: f.Page}
	if f.Page > 0 {
		page.Cars = paginate(cars, f.Page, PageSize)
	}
	return page, nil
}

// filterByPrice keeps cars whose daily price lies in [lo, hi]; a nil
// bound is open.
func filterByPrice(cars []models.Car, lo, hi *float64) []models.Car {
	if lo == nil && hi == nil {
		return cars
	}
	out := make([]models.Car, 0, len(cars))
	for _, c := range cars {
		if lo != nil && c.DailyPrice < *lo {
			continue
		}
		if hi != nil && c.DailyPrice > *hi {
			continue
		}
		out = append(out, c)
	}
	return out
}

func paginate(cars []models.Car, page, size int) []models.Car {
	start := (page - 1) * size
	if start >= len(cars) {
		return []models.Car{}
	}
	end := min(start+size, len(cars))
	return cars[start:end]
}

func (s *Service) FeaturedCars(ctx context.Context) ([]models.Car, error) {
	return cached(ctx, s, cache.KeyFeaturedCars, func(ctx context.Context) ([]models.Car, error) {
		cars, err := s.store.ListCars(ctx, models.CarQuery{IsFeatured: models.Bool(true), Limit: FeaturedCarsLimit})
		if err != nil {
			return nil, apperr.Upstream("Failed to fetch featured cars", err)
		}
		return cars, nil
	})
}

// CarsByType lists cars of a car type. The type may be given by category
// name or slug in any case; unknown values are matched as-is.
func (s *Service) CarsByType(ctx context.Context, carType string) ([]models.Car, error) {
	name := s.resolveCategory(ctx, models.CategoryCarType, carType)
	return s.carsWhere(ctx, models.CarQuery{Category: name}, "Failed to fetch cars by type")
}

// CarsByFuel lists cars of a fuel type, resolved like CarsByType.
func (s *Service) CarsByFuel(ctx context.Context, fuel string) ([]models.Car, error) {
	name := s.resolveCategory(ctx, models.CategoryFuelType, fuel)
	return s.carsWhere(ctx, models.CarQuery{Fuel: name}, "Failed to fetch cars by fuel type")
}

func (s *Service) CarsByBrand(ctx context.Context, brand string) ([]models.Car, error) {
	return s.carsWhere(ctx, models.CarQuery{Brand: brand}, "Failed to fetch cars by brand")
}

func (s *Service) carsWhere(ctx context.Context, q models.CarQuery, failed string) ([]models.Car, error) {
	cars, err := s.store.ListCars(ctx, q)
	if err != nil {
		return nil, apperr.Upstream(failed, err)
	}
	return cars, nil
}

// resolveCategory maps value to the canonical name of the category of the
// given type whose name or slug matches case-insensitively.
func (s *Service) resolveCategory(ctx context.Context, typ, value string) string {
	cats, err := s.store.ListCategories(ctx, models.CategoryQuery{Type: typ})
	if err != nil {
		s.log.Warn("category lookup failed, using raw value",
			zap.String("type", typ), zap.String("value", value), zap.Error(err))
		return value
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, value) || strings.EqualFold(c.Slug, value) {
			return c.Name
		}
	}
	return value
}

func (s *Service) GetCar(ctx context.Context, id string) (models.Car, error) {
	car, err := s.store.GetCar(ctx, id)
	if err != nil {
		return models.Car{}, storeError(err, "Car not found", "Failed to fetch car")
	}
	return car, nil
}

// CreateCar validates in, fills defaults, stores the car and syncs it to
// the search index. A *SyncError comes back together with the stored car:
// the write committed but the index is stale.
func (s *Service) CreateCar(ctx context.Context, in models.CarInput) (models.Car, error) {
	if err := s.validate.create(in); err != nil {
		return models.Car{}, err
	}

	car := newCar(in)
	if err := s.store.InsertCar(ctx, &car); err != nil {
		return models.Car{}, apperr.Upstream("Failed to create car", err)
	}
	s.invalidate(ctx, cache.KeyFeaturedCars)
	s.log.Info("car created", zap.String("car_id", car.ID))

	if err := s.sync.Upsert(ctx, car); err != nil {
		return car, err
	}
	return car, nil
}

func newCar(in models.CarInput) models.Car {
	car := models.Car{
		Brand:        *in.Brand,
		Model:        *in.Model,
		Name:         *in.Name,
		Year:         *in.Year,
		Transmission: *in.Transmission,
		Fuel:         *in.Fuel,
		DailyPrice:   *in.DailyPrice,
		Images:       []string{},
		Features:     []string{},
		IsAvailable:  true,
	}
	if in.Mileage != nil {
		car.Mileage = *in.Mileage
	}
	if in.Images != nil && *in.Images != nil {
		car.Images = *in.Images
	}
	if in.Description != nil {
		car.Description = *in.Description
	}
	if in.Features != nil && *in.Features != nil {
		car.Features = *in.Features
	}
	if in.Category != nil {
		car.Category = *in.Category
	}
	if in.Rating != nil {
		car.Rating = *in.Rating
	}
	if in.IsAvailable != nil {
		car.IsAvailable = *in.IsAvailable
	}
	if in.IsFeatured != nil {
		car.IsFeatured = *in.IsFeatured
	}
	return car
}

// UpdateCar merges the present fields of in into the stored car and
// re-syncs it. SyncError semantics match CreateCar.
func (s *Service) UpdateCar(ctx context.Context, id string, in models.CarInput) (models.Car, error) {
	if err := s.validate.update(in); err != nil {
		return models.Car{}, err
	}

	car, err := s.store.UpdateCar(ctx, id, in.Fields())
	if err != nil {
		return models.Car{}, storeError(err, "Car not found", "Failed to update car")
	}
	s.invalidate(ctx, cache.KeyFeaturedCars)
	s.log.Info("car updated", zap.String("car_id", id))

	if err := s.sync.Upsert(ctx, car); err != nil {
		return car, err
	}
	return car, nil
}

// DeleteCar removes the car and its search record.
func (s *Service) DeleteCar(ctx context.Context, id string) error {
	if err := s.store.DeleteCar(ctx, id); err != nil {
		return storeError(err, "Car not found", "Failed to delete car")
	}
	s.invalidate(ctx, cache.KeyFeaturedCars)
	s.log.Info("car deleted", zap.String("car_id", id))

	return s.sync.Remove(ctx, id)
}
