package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"car-rental-catalog/internal/catalog"
	"car-rental-catalog/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Dependency interfaces
//
// Each interface captures exactly the methods this package needs.
// main injects *catalog.Service; tests may inject fakes.
// ---------------------------------------------------------------------------

// Catalog is the query/write facade behind every route.
type Catalog interface {
	Ping(ctx context.Context) error
	Reindex(ctx context.Context) (int, error)

	ListCars(ctx context.Context, f models.CarFilter) (models.CarPage, error)
	FeaturedCars(ctx context.Context) ([]models.Car, error)
	CarsByType(ctx context.Context, carType string) ([]models.Car, error)
	CarsByFuel(ctx context.Context, fuel string) ([]models.Car, error)
	CarsByBrand(ctx context.Context, brand string) ([]models.Car, error)
	GetCar(ctx context.Context, id string) (models.Car, error)
	CreateCar(ctx context.Context, in models.CarInput) (models.Car, error)
	UpdateCar(ctx context.Context, id string, in models.CarInput) (models.Car, error)
	DeleteCar(ctx context.Context, id string) error
	Analytics(ctx context.Context) (models.Analytics, error)

	ListBrands(ctx context.Context) ([]models.Brand, error)
	FeaturedBrands(ctx context.Context) ([]models.Brand, error)
	BrandBySlug(ctx context.Context, slug string) (models.Brand, error)
	GetBrand(ctx context.Context, id string) (models.Brand, error)
	CreateBrand(ctx context.Context, in models.BrandInput) (models.Brand, error)
	UpdateBrand(ctx context.Context, id string, in models.BrandInput) (models.Brand, error)
	DeleteBrand(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	FeaturedCategories(ctx context.Context) ([]models.Category, error)
	CategoriesByType(ctx context.Context, typ string) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error)
	UpdateCategory(ctx context.Context, id string, in models.CategoryInput) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	SearchCars(ctx context.Context, query string) ([]models.SearchRecord, error)
	Landing(ctx context.Context) (models.Landing, error)
}

// Pinger is the health contract of the optional search index.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

// Handler holds every dependency the HTTP layer needs.
type Handler struct {
	Catalog Catalog
	Index   Pinger // nil when no search index is configured
	Log     *zap.Logger

	// Production disables /api/reindex. Development adds error details to
	// JSON error bodies.
	Production  bool
	Development bool
}

const healthTimeout = 3 * time.Second

// ---------------------------------------------------------------------------
// Cars
// ---------------------------------------------------------------------------

// ListCars: GET /api/cars
//
// Equality filters (brand, transmission, type, fuel, available) run at the
// store; minPrice/maxPrice are inclusive and page selects a 12-car page.
// X-Total-Count carries the filtered total.
func (h *Handler) ListCars(w http.ResponseWriter, r *http.Request) {
	f, err := parseCarFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.Catalog.ListCars(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	h.writeJSON(w, r, http.StatusOK, page.Cars)
}

func (h *Handler) FeaturedCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.FeaturedCars(r.Context())
	writeWidget(h, w, r, cars, err)
}

func (h *Handler) CarsByType(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.CarsByType(r.Context(), chi.URLParam(r, "type"))
	writeWidget(h, w, r, cars, err)
}

func (h *Handler) CarsByBrand(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.CarsByBrand(r.Context(), chi.URLParam(r, "brand"))
	writeWidget(h, w, r, cars, err)
}

func (h *Handler) CarsByFuel(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Catalog.CarsByFuel(r.Context(), chi.URLParam(r, "fuelType"))
	writeWidget(h, w, r, cars, err)
}

func (h *Handler) GetCar(w http.ResponseWriter, r *http.Request) {
	car, err := h.Catalog.GetCar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, car)
}

// CreateCar: POST /api/cars (guarded)
func (h *Handler) CreateCar(w http.ResponseWriter, r *http.Request) {
	var in models.CarInput
	if !h.decode(w, r, &in) {
		return
	}
	car, err := h.Catalog.CreateCar(r.Context(), in)
	h.writeWrite(w, r, http.StatusCreated, car, err)
}

// UpdateCar: PUT /api/cars/{id} (guarded). Only fields present in the
// body are changed.
func (h *Handler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	var in models.CarInput
	if !h.decode(w, r, &in) {
		return
	}
	car, err := h.Catalog.UpdateCar(r.Context(), chi.URLParam(r, "id"), in)
	h.writeWrite(w, r, http.StatusOK, car, err)
}

func (h *Handler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	err := h.Catalog.DeleteCar(r.Context(), chi.URLParam(r, "id"))
	h.writeWrite(w, r, http.StatusOK, message("Car deleted successfully"), err)
}

// Analytics: GET /api/cars/admin/analytics (guarded)
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.Catalog.Analytics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, a)
}

// ---------------------------------------------------------------------------
// Brands
// ---------------------------------------------------------------------------

func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Catalog.ListBrands(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, brands)
}

func (h *Handler) FeaturedBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Catalog.FeaturedBrands(r.Context())
	writeWidget(h, w, r, brands, err)
}

func (h *Handler) BrandBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.Catalog.BrandBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, b)
}

func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	b, err := h.Catalog.GetBrand(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, b)
}

func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var in models.BrandInput
	if !h.decode(w, r, &in) {
		return
	}
	b, err := h.Catalog.CreateBrand(r.Context(), in)
	h.writeWrite(w, r, http.StatusCreated, b, err)
}

func (h *Handler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	var in models.BrandInput
	if !h.decode(w, r, &in) {
		return
	}
	b, err := h.Catalog.UpdateBrand(r.Context(), chi.URLParam(r, "id"), in)
	h.writeWrite(w, r, http.StatusOK, b, err)
}

// DeleteBrand: DELETE /api/brands/{id} (guarded). Answers 400 with the
// number of referencing cars when the brand is still in use.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	err := h.Catalog.DeleteBrand(r.Context(), chi.URLParam(r, "id"))
	h.writeWrite(w, r, http.StatusOK, message("Brand deleted successfully"), err)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cats)
}

func (h *Handler) FeaturedCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.FeaturedCategories(r.Context())
	writeWidget(h, w, r, cats, err)
}

func (h *Handler) CategoriesByType(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.CategoriesByType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cats)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, c)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), in)
	h.writeWrite(w, r, http.StatusCreated, c, err)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	h.writeWrite(w, r, http.StatusOK, c, err)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	h.writeWrite(w, r, http.StatusOK, message("Category deleted successfully"), err)
}

// ---------------------------------------------------------------------------
// Search, landing, maintenance
// ---------------------------------------------------------------------------

// SearchCars: GET /api/search?q={term}
//
// A blank term answers []. The hosted index serves the query when it is
// configured and healthy, the in-process fallback otherwise.
func (h *Handler) SearchCars(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Catalog.SearchCars(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, recs)
}

// Home: GET /api/home
//
// The landing page never fails: an upstream error yields empty lists.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	landing, err := h.Catalog.Landing(r.Context())
	if err != nil {
		h.logFailure(r, "landing degraded to empty", err)
		landing = models.Landing{}
	}
	if landing.FeaturedCars == nil {
		landing.FeaturedCars = []models.Car{}
	}
	if landing.FeaturedBrands == nil {
		landing.FeaturedBrands = []models.Brand{}
	}
	if landing.FeaturedCategories == nil {
		landing.FeaturedCategories = []models.Category{}
	}
	h.writeJSON(w, r, http.StatusOK, landing)
}

// Reindex: GET /api/reindex
//
// Rebuilds the search index from the store. Refused in production.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.Production {
		h.writeJSON(w, r, http.StatusForbidden, map[string]string{"error": "Not available in production"})
		return
	}
	n, err := h.Catalog.Reindex(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info("search index rebuilt", zap.String("component", "api"), zap.Int("records", n), zap.String("trigger", "manual"))
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Reindexing completed successfully",
		"count":   n,
	})
}

// Health: GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := map[string]string{"store": "ok"}
	code := http.StatusOK
	if err := h.Catalog.Ping(ctx); err != nil {
		h.logFailure(r, "store ping failed", err)
		status["store"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if h.Index != nil {
		status["search"] = "ok"
		if err := h.Index.Ping(ctx); err != nil {
			h.logFailure(r, "search ping failed", err)
			status["search"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	h.writeJSON(w, r, code, status)
}

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

func parseCarFilter(r *http.Request) (models.CarFilter, error) {
	q := r.URL.Query()
	f := models.CarFilter{
		CarQuery: models.CarQuery{
			Brand:        q.Get("brand"),
			Transmission: q.Get("transmission"),
			Category:     q.Get("type"),
			Fuel:         q.Get("fuel"),
		},
	}

	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, badQuery("available", v)
		}
		f.IsAvailable = &b
	}
	var err error
	if f.MinPrice, err = parsePrice(q.Get("minPrice"), "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(q.Get("maxPrice"), "maxPrice"); err != nil {
		return f, err
	}
	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return f, badQuery("page", v)
		}
		f.Page = p
	}
	return f, nil
}

func parsePrice(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return nil, badQuery(name, v)
	}
	return &p, nil
}

// decode reads a JSON body into dst and answers 400 when it is malformed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, invalidBody(err))
		return false
	}
	return true
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// writeWrite answers a committed write. A *catalog.SyncError means the
// store accepted the write and only the search projection lagged, so the
// success status stands and X-Search-Sync flags the staleness.
func (h *Handler) writeWrite(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	var syncErr *catalog.SyncError
	if errors.As(err, &syncErr) {
		w.Header().Set("X-Search-Sync", "failed")
		err = nil
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, status, body)
}
