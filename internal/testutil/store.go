// Package testutil provides in-memory fakes of the catalog's store and
// search index, plus small HTTP helpers, for unit tests.
package testutil

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"car-rental-catalog/internal/database"
	"car-rental-catalog/internal/models"

	"github.com/google/uuid"
)

// MemStore is an in-memory document store with the same method set and
// ordering rules as the database backends. Setting Err makes every call
// fail with it.
type MemStore struct {
	mu         sync.Mutex
	cars       []models.Car
	brands     []models.Brand
	categories []models.Category
	clock      time.Time

	Err    error
	Writes int
}

func NewMemStore() *MemStore {
	return &MemStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// tick returns strictly increasing timestamps so insertion order is
// observable through createdAt.
func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *MemStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// ── Cars ───────────────────────────────────────────────────────────────────

func (m *MemStore) GetCar(_ context.Context, id string) (models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Car{}, m.Err
	}
	i := slices.IndexFunc(m.cars, func(c models.Car) bool { return c.ID == id })
	if i < 0 {
		return models.Car{}, database.ErrNotFound
	}
	return m.cars[i], nil
}

func (m *MemStore) ListCars(_ context.Context, q models.CarQuery) ([]models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return filter(m.cars, q.Equals(), q.Limit), nil
}

func (m *MemStore) CountCars(_ context.Context, q models.CarQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(filter(m.cars, q.Equals(), 0))), nil
}

func (m *MemStore) InsertCar(_ context.Context, c *models.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.cars = append(m.cars, *c)
	m.Writes++
	return nil
}

func (m *MemStore) UpdateCar(_ context.Context, id string, set map[string]any) (models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Car{}, m.Err
	}
	i := slices.IndexFunc(m.cars, func(c models.Car) bool { return c.ID == id })
	if i < 0 {
		return models.Car{}, database.ErrNotFound
	}
	merged, err := merge(m.cars[i], set, m.tick())
	if err != nil {
		return models.Car{}, err
	}
	m.cars[i] = merged
	m.Writes++
	return merged, nil
}

func (m *MemStore) DeleteCar(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	n := len(m.cars)
	m.cars = slices.DeleteFunc(m.cars, func(c models.Car) bool { return c.ID == id })
	if len(m.cars) == n {
		return database.ErrNotFound
	}
	m.Writes++
	return nil
}

// ── Brands ─────────────────────────────────────────────────────────────────

func (m *MemStore) GetBrand(_ context.Context, id string) (models.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Brand{}, m.Err
	}
	i := slices.IndexFunc(m.brands, func(b models.Brand) bool { return b.ID == id })
	if i < 0 {
		return models.Brand{}, database.ErrNotFound
	}
	return m.brands[i], nil
}

func (m *MemStore) ListBrands(_ context.Context, q models.BrandQuery) ([]models.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := filter(m.brands, q.Equals(), 0)
	slices.SortStableFunc(out, func(a, b models.Brand) int { return strings.Compare(a.Name, b.Name) })
	return limit(out, q.Limit), nil
}

func (m *MemStore) CountBrands(_ context.Context, q models.BrandQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(filter(m.brands, q.Equals(), 0))), nil
}

func (m *MemStore) InsertBrand(_ context.Context, b *models.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	b.ID = uuid.NewString()
	b.CreatedAt = m.tick()
	b.UpdatedAt = b.CreatedAt
	m.brands = append(m.brands, *b)
	m.Writes++
	return nil
}

func (m *MemStore) UpdateBrand(_ context.Context, id string, set map[string]any) (models.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Brand{}, m.Err
	}
	i := slices.IndexFunc(m.brands, func(b models.Brand) bool { return b.ID == id })
	if i < 0 {
		return models.Brand{}, database.ErrNotFound
	}
	merged, err := merge(m.brands[i], set, m.tick())
	if err != nil {
		return models.Brand{}, err
	}
	m.brands[i] = merged
	m.Writes++
	return merged, nil
}

func (m *MemStore) DeleteBrand(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	n := len(m.brands)
	m.brands = slices.DeleteFunc(m.brands, func(b models.Brand) bool { return b.ID == id })
	if len(m.brands) == n {
		return database.ErrNotFound
	}
	m.Writes++
	return nil
}

// ── Categories ─────────────────────────────────────────────────────────────

func (m *MemStore) GetCategory(_ context.Context, id string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Category{}, m.Err
	}
	i := slices.IndexFunc(m.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return models.Category{}, database.ErrNotFound
	}
	return m.categories[i], nil
}

func (m *MemStore) ListCategories(_ context.Context, q models.CategoryQuery) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := filter(m.categories, q.Equals(), 0)
	slices.SortStableFunc(out, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return limit(out, q.Limit), nil
}

func (m *MemStore) CountCategories(_ context.Context, q models.CategoryQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(filter(m.categories, q.Equals(), 0))), nil
}

func (m *MemStore) InsertCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.categories = append(m.categories, *c)
	m.Writes++
	return nil
}

func (m *MemStore) UpdateCategory(_ context.Context, id string, set map[string]any) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Category{}, m.Err
	}
	i := slices.IndexFunc(m.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return models.Category{}, database.ErrNotFound
	}
	merged, err := merge(m.categories[i], set, m.tick())
	if err != nil {
		return models.Category{}, err
	}
	m.categories[i] = merged
	m.Writes++
	return merged, nil
}

func (m *MemStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	n := len(m.categories)
	m.categories = slices.DeleteFunc(m.categories, func(c models.Category) bool { return c.ID == id })
	if len(m.categories) == n {
		return database.ErrNotFound
	}
	m.Writes++
	return nil
}

// ------------------------------------------------------------------------

// filter returns the documents whose JSON fields equal every value in eq.
func filter[T any](docs []T, eq map[string]any, n int) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		if matches(d, eq) {
			out = append(out, d)
		}
	}
	return limit(out, n)
}

func matches(doc any, eq map[string]any) bool {
	if len(eq) == 0 {
		return true
	}
	raw, _ := json.Marshal(doc)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	for k, v := range eq {
		if m[k] != v {
			return false
		}
	}
	return true
}

func limit[T any](docs []T, n int) []T {
	if n > 0 && len(docs) > n {
		return docs[:n]
	}
	return docs
}

// merge applies set to doc through its JSON form, the way the stores do.
func merge[T any](doc T, set map[string]any, updatedAt time.Time) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, err
	}
	for k, v := range set {
		if k == "id" || k == "createdAt" {
			continue
		}
		m[k] = v
	}
	m["updatedAt"] = updatedAt
	raw, err = json.Marshal(m)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
