package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"car-rental-catalog/internal/models"
)

// MemIndex is an in-memory search index. WriteErr fails every write,
// SearchErr every search and PingErr every health check.
type MemIndex struct {
	mu      sync.Mutex
	records map[string]models.SearchRecord

	Configured   int
	Searches     int
	WriteErr     error
	SearchErr    error
	PingErr      error
	ConfigureErr error // fails ConfigureIndex only
}

func NewMemIndex() *MemIndex {
	return &MemIndex{records: make(map[string]models.SearchRecord)}
}

func (ix *MemIndex) Ping(context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.PingErr
}

func (ix *MemIndex) ConfigureIndex(context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.WriteErr != nil {
		return ix.WriteErr
	}
	if ix.ConfigureErr != nil {
		return ix.ConfigureErr
	}
	ix.Configured++
	return nil
}

func (ix *MemIndex) UpsertRecord(_ context.Context, rec models.SearchRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.WriteErr != nil {
		return ix.WriteErr
	}
	ix.records[rec.ID] = rec
	return nil
}

func (ix *MemIndex) DeleteRecord(_ context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.WriteErr != nil {
		return ix.WriteErr
	}
	delete(ix.records, id)
	return nil
}

func (ix *MemIndex) ReplaceAll(_ context.Context, recs []models.SearchRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.WriteErr != nil {
		return ix.WriteErr
	}
	ix.records = make(map[string]models.SearchRecord, len(recs))
	for _, r := range recs {
		ix.records[r.ID] = r
	}
	return nil
}

// Search returns records whose name contains term, ordered by id.
func (ix *MemIndex) Search(_ context.Context, term string, limit int) ([]models.SearchRecord, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.Searches++
	if ix.SearchErr != nil {
		return nil, ix.SearchErr
	}
	term = strings.ToLower(term)
	out := make([]models.SearchRecord, 0)
	for _, r := range ix.records {
		if strings.Contains(strings.ToLower(r.Name), term) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.SearchRecord) int { return strings.Compare(a.ID, b.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Records returns a snapshot of the index keyed by id.
func (ix *MemIndex) Records() map[string]models.SearchRecord {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make(map[string]models.SearchRecord, len(ix.records))
	for k, v := range ix.records {
		out[k] = v
	}
	return out
}
