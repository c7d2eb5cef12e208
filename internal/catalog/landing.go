package catalog

import (
	"context"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/models"

	"golang.org/x/sync/errgroup"
)

// Landing fetches the featured cars, brands and categories concurrently.
func (s *Service) Landing(ctx context.Context) (models.Landing, error) {
	var out models.Landing
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cars, err := s.FeaturedCars(gctx)
		out.FeaturedCars = cars
		return err
	})
	g.Go(func() error {
		brands, err := s.FeaturedBrands(gctx)
		out.FeaturedBrands = brands
		return err
	})
	g.Go(func() error {
		cats, err := s.FeaturedCategories(gctx)
		out.FeaturedCategories = cats
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Landing{}, err
	}
	return out, nil
}

// Analytics counts the catalog for the admin dashboard. The five counts run
// concurrently.
func (s *Service) Analytics(ctx context.Context) (models.Analytics, error) {
	var a models.Analytics
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		a.TotalCars, err = s.store.CountCars(gctx, models.CarQuery{})
		return err
	})
	g.Go(func() (err error) {
		a.TotalBrands, err = s.store.CountBrands(gctx, models.BrandQuery{})
		return err
	})
	g.Go(func() (err error) {
		a.TotalCategories, err = s.store.CountCategories(gctx, models.CategoryQuery{})
		return err
	})
	g.Go(func() (err error) {
		a.AvailableCars, err = s.store.CountCars(gctx, models.CarQuery{IsAvailable: models.Bool(true)})
		return err
	})
	g.Go(func() (err error) {
		a.FeaturedCars, err = s.store.CountCars(gctx, models.CarQuery{IsFeatured: models.Bool(true)})
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Analytics{}, apperr.Upstream("Failed to fetch analytics", err)
	}
	return a, nil
}
