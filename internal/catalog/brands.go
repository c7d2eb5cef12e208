package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/models"

	"go.uber.org/zap"
)

func (s *Service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return cached(ctx, s, cache.KeyBrands, func(ctx context.Context) ([]models.Brand, error) {
		brands, err := s.store.ListBrands(ctx, models.BrandQuery{})
		if err != nil {
			return nil, apperr.Upstream("Failed to fetch brands", err)
		}
		return brands, nil
	})
}

func (s *Service) FeaturedBrands(ctx context.Context) ([]models.Brand, error) {
	return cached(ctx, s, cache.KeyFeaturedBrands, func(ctx context.Context) ([]models.Brand, error) {
		brands, err := s.store.ListBrands(ctx, models.BrandQuery{Featured: models.Bool(true), Limit: FeaturedBrandsLimit})
		if err != nil {
			return nil, apperr.Upstream("Failed to fetch featured brands", err)
		}
		return brands, nil
	})
}

func (s *Service) BrandBySlug(ctx context.Context, slug string) (models.Brand, error) {
	brands, err := s.store.ListBrands(ctx, models.BrandQuery{Slug: slug, Limit: 1})
	if err != nil {
		return models.Brand{}, apperr.Upstream("Failed to fetch brand", err)
	}
	if len(brands) == 0 {
		return models.Brand{}, apperr.NotFound("Brand not found")
	}
	return brands[0], nil
}

func (s *Service) GetBrand(ctx context.Context, id string) (models.Brand, error) {
	b, err := s.store.GetBrand(ctx, id)
	if err != nil {
		return models.Brand{}, storeError(err, "Brand not found", "Failed to fetch brand")
	}
	return b, nil
}

func (s *Service) CreateBrand(ctx context.Context, in models.BrandInput) (models.Brand, error) {
	if (in.Slug == nil || strings.TrimSpace(*in.Slug) == "") && in.Name != nil {
		slug := Slugify(*in.Name)
		in.Slug = &slug
	}
	if err := s.validate.create(in); err != nil {
		return models.Brand{}, err
	}

	b := models.Brand{Name: *in.Name, Logo: *in.Logo, Slug: *in.Slug}
	if in.Featured != nil {
		b.Featured = *in.Featured
	}
	if in.CarCount != nil {
		b.CarCount = *in.CarCount
	}
	if err := s.store.InsertBrand(ctx, &b); err != nil {
		return models.Brand{}, apperr.Upstream("Failed to create brand", err)
	}
	s.invalidate(ctx, cache.KeyBrands, cache.KeyFeaturedBrands)
	s.log.Info("brand created", zap.String("brand_id", b.ID))
	return b, nil
}

// UpdateBrand merges the present fields of in. Renaming a brand does not
// rewrite the brand name stored on its cars; cars still carrying the old
// name are counted and reported in a warning.
func (s *Service) UpdateBrand(ctx context.Context, id string, in models.BrandInput) (models.Brand, error) {
	if err := s.validate.update(in); err != nil {
		return models.Brand{}, err
	}

	var oldName string
	if in.Name != nil {
		prev, err := s.store.GetBrand(ctx, id)
		if err != nil {
			return models.Brand{}, storeError(err, "Brand not found", "Failed to update brand")
		}
		oldName = prev.Name
	}

	b, err := s.store.UpdateBrand(ctx, id, in.Fields())
	if err != nil {
		return models.Brand{}, storeError(err, "Brand not found", "Failed to update brand")
	}
	s.invalidate(ctx, cache.KeyBrands, cache.KeyFeaturedBrands)
	s.log.Info("brand updated", zap.String("brand_id", id))

	if oldName != "" && oldName != b.Name {
		n, err := s.store.CountCars(ctx, models.CarQuery{Brand: oldName})
		if err != nil {
			s.log.Warn("brand renamed; could not count orphaned cars",
				zap.String("brand_id", id), zap.Error(err))
		} else if n > 0 {
			s.log.Warn("brand renamed; cars still reference the old name",
				zap.String("brand_id", id),
				zap.String("old_name", oldName),
				zap.String("new_name", b.Name),
				zap.Int64("cars", n),
			)
		}
	}
	return b, nil
}

// DeleteBrand refuses to delete a brand that any car references by name.
func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	b, err := s.store.GetBrand(ctx, id)
	if err != nil {
		return storeError(err, "Brand not found", "Failed to delete brand")
	}

	n, err := s.store.CountCars(ctx, models.CarQuery{Brand: b.Name})
	if err != nil {
		return apperr.Upstream("Failed to delete brand", err)
	}
	if n > 0 {
		return apperr.Conflict(fmt.Sprintf(
			"Cannot delete brand %q. There are %d cars associated with this brand. Please delete or reassign these cars first.",
			b.Name, n,
		)).WithDetails(map[string]any{"carCount": n})
	}

	if err := s.store.DeleteBrand(ctx, id); err != nil {
		return storeError(err, "Brand not found", "Failed to delete brand")
	}
	s.invalidate(ctx, cache.KeyBrands, cache.KeyFeaturedBrands)
	s.log.Info("brand deleted", zap.String("brand_id", id))
	return nil
}

// DedupeBrands removes brands whose trimmed name repeats the name of an
// earlier-created brand, keeping the earliest. With dryRun nothing is
// deleted. It returns the brands that were (or would be) removed.
func (s *Service) DedupeBrands(ctx context.Context, dryRun bool) ([]models.Brand, error) {
	brands, err := s.store.ListBrands(ctx, models.BrandQuery{})
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch brands", err)
	}
	slices.SortStableFunc(brands, func(a, b models.Brand) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	seen := make(map[string]string, len(brands))
	dupes := make([]models.Brand, 0)
	for _, b := range brands {
		name := strings.TrimSpace(b.Name)
		if keep, ok := seen[name]; ok {
			s.log.Info("duplicate brand",
				zap.String("brand_id", b.ID), zap.String("name", name), zap.String("kept_id", keep))
			dupes = append(dupes, b)
			continue
		}
		seen[name] = b.ID
	}
	if dryRun || len(dupes) == 0 {
		return dupes, nil
	}

	for _, b := range dupes {
		if err := s.store.DeleteBrand(ctx, b.ID); err != nil {
			return nil, storeError(err, "Brand not found", "Failed to delete duplicate brand")
		}
	}
	s.invalidate(ctx, cache.KeyBrands, cache.KeyFeaturedBrands)
	return dupes, nil
}
