package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the cross-cutting middleware around the routes.
type RouterOptions struct {
	// Guard protects admin writes; usually (*auth.Guard).Middleware.
	Guard          func(http.Handler) http.Handler
	Limiter        *IPRateLimiter // nil disables rate limiting
	AllowedOrigins []string
}

// NewRouter attaches all application routes. Keeping this separate from
// handlers.go means the full route surface is visible at a glance.
func (h *Handler) NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Total-Count", "X-Search-Sync"},
		MaxAge:         300,
	}))

	guard := opts.Guard
	if guard == nil {
		guard = denyAll
	}
	limit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware
	}
	admin := func(r chi.Router) chi.Router { return r.With(limit, guard) }

	r.Route("/api", func(r chi.Router) {
		// Cars
		r.Route("/cars", func(r chi.Router) {
			r.Get("/", h.ListCars)
			r.Get("/featured", h.FeaturedCars)
			r.Get("/type/{type}", h.CarsByType)
			r.Get("/brand/{brand}", h.CarsByBrand)
			r.Get("/fuel-type/{fuelType}", h.CarsByFuel)
			admin(r).Get("/admin/analytics", h.Analytics)
			r.Get("/{id}", h.GetCar)
			admin(r).Post("/", h.CreateCar)
			admin(r).Put("/{id}", h.UpdateCar)
			admin(r).Delete("/{id}", h.DeleteCar)
		})

		// Brands
		r.Route("/brands", func(r chi.Router) {
			r.Get("/", h.ListBrands)
			r.Get("/featured", h.FeaturedBrands)
			r.Get("/slug/{slug}", h.BrandBySlug)
			r.Get("/{id}", h.GetBrand)
			admin(r).Post("/", h.CreateBrand)
			admin(r).Put("/{id}", h.UpdateBrand)
			admin(r).Delete("/{id}", h.DeleteBrand)
		})

		// Categories
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/featured", h.FeaturedCategories)
			r.Get("/type/{type}", h.CategoriesByType)
			r.Get("/{id}", h.GetCategory)
			admin(r).Post("/", h.CreateCategory)
			admin(r).Put("/{id}", h.UpdateCategory)
			admin(r).Delete("/{id}", h.DeleteCategory)
		})

		r.With(limit).Get("/search", h.SearchCars)
		r.Get("/home", h.Home)
		r.Get("/reindex", h.Reindex)
	})

	// Observability
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// denyAll stands in for a missing guard so admin routes never open up.
func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication required"}` + "\n"))
	})
}
