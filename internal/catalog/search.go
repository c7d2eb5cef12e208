package catalog

import (
	"context"
	"slices"
	"strings"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/metrics"
	"car-rental-catalog/internal/models"

	"go.uber.org/zap"
)

// SearchCars answers a free-text query. The hosted index serves it when
// configured; otherwise, or when the index fails, the in-process fallback
// does. A blank query matches nothing.
func (s *Service) SearchCars(ctx context.Context, query string) ([]models.SearchRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchRecord{}, nil
	}

	if s.search != nil {
		recs, err := s.search.Search(ctx, query, SearchLimit)
		if err == nil {
			return recs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.SearchFallbacks.WithLabelValues("error").Inc()
		s.log.Warn("hosted search failed, using fallback", zap.String("query", query), zap.Error(err))
	} else {
		metrics.SearchFallbacks.WithLabelValues("disabled").Inc()
	}

	cars, err := s.store.ListCars(ctx, models.CarQuery{})
	if err != nil {
		return nil, apperr.Upstream("Failed to search cars", err)
	}
	hits := fallbackSearch(cars, query, SearchLimit)
	recs := make([]models.SearchRecord, 0, len(hits))
	for _, c := range hits {
		recs = append(recs, models.NewSearchRecord(c))
	}
	return recs, nil
}

// fallbackSearch matches query as a lowercase substring of a car's name,
// brand, model, category, fuel, transmission and features. Matches are
// ordered exact name first, then name prefix, then exact brand, then store
// order, and capped at limit.
func fallbackSearch(cars []models.Car, query string, limit int) []models.Car {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Car{}
	}

	type hit struct {
		car  models.Car
		rank int
	}
	var hits []hit
	for _, c := range cars {
		if !strings.Contains(haystack(c), q) {
			continue
		}
		hits = append(hits, hit{car: c, rank: rank(c, q)})
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.rank - b.rank })

	out := make([]models.Car, 0, min(len(hits), limit))
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.car)
	}
	return out
}

func haystack(c models.Car) string {
	return strings.ToLower(strings.Join([]string{
		c.Name, c.Brand, c.Model, c.Category, c.Fuel, c.Transmission,
		strings.Join(c.Features, " "),
	}, " "))
}

// rank is lower for better matches.
func rank(c models.Car, q string) int {
	name := strings.ToLower(c.Name)
	switch {
	case name == q:
		return 0
	case strings.HasPrefix(name, q):
		return 1
	case strings.ToLower(c.Brand) == q:
		return 2
	default:
		return 3
	}
}
