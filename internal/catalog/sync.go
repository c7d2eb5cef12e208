package catalog

import (
	"context"
	"fmt"

	"car-rental-catalog/internal/metrics"
	"car-rental-catalog/internal/models"

	"go.uber.org/zap"
)

// SyncError reports a search-index write that failed after the document
// store write it follows had already committed. The store is not rolled
// back; the index stays stale until the next write or reindex.
type SyncError struct {
	Op  string
	ID  string
	Err error
}

func (e *SyncError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("search sync %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("search sync %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// CarLister is the slice of the store the syncer needs for a full rebuild.
type CarLister interface {
	ListCars(ctx context.Context, q models.CarQuery) ([]models.Car, error)
}

// Syncer propagates catalog writes to the search index. Every attempt is
// one-shot: failures are logged, counted and returned, never retried here.
// With a nil writer every call is a no-op.
type Syncer struct {
	writer IndexWriter
	cars   CarLister
	log    *zap.Logger
}

func NewSyncer(writer IndexWriter, cars CarLister, log *zap.Logger) *Syncer {
	return &Syncer{writer: writer, cars: cars, log: log.With(zap.String("component", "search_sync"))}
}

// Enabled reports whether a search backend is configured.
func (s *Syncer) Enabled() bool {
	return s != nil && s.writer != nil
}

// ConfigureIndex declares the index settings. Safe to repeat.
func (s *Syncer) ConfigureIndex(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.writer.ConfigureIndex(ctx); err != nil {
		return s.fail("configure", "", err)
	}
	s.log.Info("search index configured")
	return nil
}

// Upsert projects car and writes its record.
func (s *Syncer) Upsert(ctx context.Context, car models.Car) error {
	if !s.Enabled() {
		s.log.Debug("search sync disabled, skipping upsert", zap.String("car_id", car.ID))
		return nil
	}
	if err := s.writer.UpsertRecord(ctx, models.NewSearchRecord(car)); err != nil {
		return s.fail("upsert", car.ID, err)
	}
	return nil
}

// Remove deletes the record for id. Removing a missing record succeeds.
func (s *Syncer) Remove(ctx context.Context, id string) error {
	if !s.Enabled() {
		s.log.Debug("search sync disabled, skipping remove", zap.String("car_id", id))
		return nil
	}
	if err := s.writer.DeleteRecord(ctx, id); err != nil {
		return s.fail("remove", id, err)
	}
	return nil
}

// ReindexAll rebuilds the index from every car in the store and returns
// how many records were written. The writer's ReplaceAll recreates the
// index with its declared mapping, so a rebuild also repairs a mapping
// that ConfigureIndex can no longer update in place.
func (s *Syncer) ReindexAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, &SyncError{Op: "reindex", Err: ErrSearchDisabled}
	}

	cars, err := s.cars.ListCars(ctx, models.CarQuery{})
	if err != nil {
		return 0, fmt.Errorf("reindex: list cars: %w", err)
	}
	recs := make([]models.SearchRecord, 0, len(cars))
	for _, c := range cars {
		recs = append(recs, models.NewSearchRecord(c))
	}

	if err := s.writer.ReplaceAll(ctx, recs); err != nil {
		return 0, s.fail("reindex", "", err)
	}
	s.log.Info("search index rebuilt", zap.Int("records", len(recs)))
	return len(recs), nil
}

func (s *Syncer) fail(op, id string, err error) error {
	metrics.SearchSyncFailures.WithLabelValues(op).Inc()
	s.log.Error("search sync failed",
		zap.String("op", op),
		zap.String("car_id", id),
		zap.Error(err),
	)
	return &SyncError{Op: op, ID: id, Err: err}
}
