package catalog

import (
	"context"
	"strings"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/models"

	"go.uber.org/zap"
)

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, s, cache.KeyCategories, func(ctx context.Context) ([]models.Category, error) {
		cats, err := s.store.ListCategories(ctx, models.CategoryQuery{})
		if err != nil {
			return nil, apperr.Upstream("Failed to fetch categories", err)
		}
		return cats, nil
	})
}

func (s *Service) FeaturedCategories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, s, cache.KeyFeaturedCategories, func(ctx context.Context) ([]models.Category, error) {
		cats, err := s.store.ListCategories(ctx, models.CategoryQuery{Featured: models.Bool(true), Limit: FeaturedCategoriesLimit})
		if err != nil {
			return nil, apperr.Upstream("Failed to fetch featured categories", err)
		}
		return cats, nil
	})
}

func (s *Service) CategoriesByType(ctx context.Context, typ string) ([]models.Category, error) {
	if !models.ValidCategoryType(typ) {
		return nil, apperr.Validation("type must be one of: carType, fuelType, tag")
	}
	cats, err := s.store.ListCategories(ctx, models.CategoryQuery{Type: typ})
	if err != nil {
		return nil, apperr.Upstream("Failed to fetch categories", err)
	}
	return cats, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, storeError(err, "Category not found", "Failed to fetch category")
	}
	return c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	if (in.Slug == nil || strings.TrimSpace(*in.Slug) == "") && in.Name != nil {
		slug := Slugify(*in.Name)
		in.Slug = &slug
	}
	if err := s.validate.create(in); err != nil {
		return models.Category{}, err
	}

	c := models.Category{Name: *in.Name, Slug: *in.Slug, Type: *in.Type}
	if in.Image != nil {
		c.Image = *in.Image
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Featured != nil {
		c.Featured = *in.Featured
	}
	if in.CarCount != nil {
		c.CarCount = *in.CarCount
	}
	if err := s.store.InsertCategory(ctx, &c); err != nil {
		return models.Category{}, apperr.Upstream("Failed to create category", err)
	}
	s.invalidate(ctx, cache.KeyCategories, cache.KeyFeaturedCategories)
	s.log.Info("category created", zap.String("category_id", c.ID))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in models.CategoryInput) (models.Category, error) {
	if err := s.validate.update(in); err != nil {
		return models.Category{}, err
	}

	c, err := s.store.UpdateCategory(ctx, id, in.Fields())
	if err != nil {
		return models.Category{}, storeError(err, "Category not found", "Failed to update category")
	}
	s.invalidate(ctx, cache.KeyCategories, cache.KeyFeaturedCategories)
	s.log.Info("category updated", zap.String("category_id", id))
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return storeError(err, "Category not found", "Failed to delete category")
	}
	s.invalidate(ctx, cache.KeyCategories, cache.KeyFeaturedCategories)
	s.log.Info("category deleted", zap.String("category_id", id))
	return nil
}
