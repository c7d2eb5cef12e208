// Package catalog owns the car-rental catalog rules: write validation and
// defaults, referential checks, the storefront query facade, the read cache
// and the search-index sync.
package catalog

import (
	"context"

	"car-rental-catalog/internal/models"
)

// Store is the document store the catalog runs on. database.Mongo and
// database.Postgres both satisfy it. Implementations return
// database.ErrNotFound for unknown ids.
type Store interface {
	Ping(ctx context.Context) error

	GetCar(ctx context.Context, id string) (models.Car, error)
	ListCars(ctx context.Context, q models.CarQuery) ([]models.Car, error)
	CountCars(ctx context.Context, q models.CarQuery) (int64, error)
	InsertCar(ctx context.Context, c *models.Car) error
	UpdateCar(ctx context.Context, id string, set map[string]any) (models.Car, error)
	DeleteCar(ctx context.Context, id string) error

	GetBrand(ctx context.Context, id string) (models.Brand, error)
	ListBrands(ctx context.Context, q models.BrandQuery) ([]models.Brand, error)
	CountBrands(ctx context.Context, q models.BrandQuery) (int64, error)
	InsertBrand(ctx context.Context, b *models.Brand) error
	UpdateBrand(ctx context.Context, id string, set map[string]any) (models.Brand, error)
	DeleteBrand(ctx context.Context, id string) error

	GetCategory(ctx context.Context, id string) (models.Category, error)
	ListCategories(ctx context.Context, q models.CategoryQuery) ([]models.Category, error)
	CountCategories(ctx context.Context, q models.CategoryQuery) (int64, error)
	InsertCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, id string, set map[string]any) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Searcher queries the hosted search index. search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]models.SearchRecord, error)
}

// IndexWriter applies search-record changes. search.Client writes to the
// index directly; queue.Publisher defers the write to the sync worker.
type IndexWriter interface {
	ConfigureIndex(ctx context.Context) error
	UpsertRecord(ctx context.Context, rec models.SearchRecord) error
	DeleteRecord(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, recs []models.SearchRecord) error
}
