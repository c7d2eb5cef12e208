package catalog

import (
	"context"
	"errors"
	"testing"

	"car-rental-catalog/internal/models"
	"car-rental-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReindexAll_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mustCreateCar(t, f, validCar())
	mustCreateCar(t, f, carNamed("Roma", "Ferrari", 2800))

	// Drift: a stale record the store no longer has.
	require.NoError(t, f.index.UpsertRecord(ctx, models.SearchRecord{ID: "ghost"}))

	n1, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	first := f.index.Records()

	n2, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	second := f.index.Records()

	assert.Equal(t, 2, n1)
	assert.Equal(t, n1, n2)
	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.NotContains(t, second, "ghost")
}

func TestReindexAll_DoesNotDependOnMappingUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := mustCreateCar(t, f, validCar())

	f.index.ConfigureErr = errors.New("mapper [transmission] cannot be changed from type [text] to [keyword]")
	n, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.index.Records(), car.ID)
	assert.Zero(t, f.index.Configured)
}

func TestSyncer_FailureIsReported(t *testing.T) {
	log := zaptest.NewLogger(t)
	index := testutil.NewMemIndex()
	index.WriteErr = errors.New("timeout")
	s := NewSyncer(index, testutil.NewMemStore(), log)

	err := s.Upsert(context.Background(), models.Car{ID: "c1"})
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "upsert", syncErr.Op)
	assert.Equal(t, "c1", syncErr.ID)
	assert.ErrorIs(t, err, index.WriteErr)

	err = s.Remove(context.Background(), "c1")
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "remove", syncErr.Op)
}

func TestSyncer_Disabled(t *testing.T) {
	s := NewSyncer(nil, testutil.NewMemStore(), zaptest.NewLogger(t))
	ctx := context.Background()

	assert.False(t, s.Enabled())
	assert.NoError(t, s.ConfigureIndex(ctx))
	assert.NoError(t, s.Upsert(ctx, models.Car{ID: "c1"}))
	assert.NoError(t, s.Remove(ctx, "c1"))

	_, err := s.ReindexAll(ctx)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestSyncer_RemoveMissingIsNoError(t *testing.T) {
	index := testutil.NewMemIndex()
	s := NewSyncer(index, testutil.NewMemStore(), zaptest.NewLogger(t))
	assert.NoError(t, s.Remove(context.Background(), "never-indexed"))
}
