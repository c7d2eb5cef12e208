package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"car-rental-catalog/internal/models"
	"car-rental-catalog/internal/queue"
	"car-rental-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type settle string

const (
	acked     settle = "ack"
	requeued  settle = "requeue"
	discarded settle = "discard"
)

// fakeAck records how a delivery was settled.
type fakeAck struct {
	mu  sync.Mutex
	got []settle
}

func (a *fakeAck) Ack(bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, acked)
	return nil
}

func (a *fakeAck) Nack(_, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.got = append(a.got, requeued)
	} else {
		a.got = append(a.got, discarded)
	}
	return nil
}

func (a *fakeAck) settled() []settle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settle(nil), a.got...)
}

type chanSource struct {
	ch  chan queue.Delivery
	err error
}

func (s chanSource) Consume() (<-chan queue.Delivery, error) { return s.ch, s.err }

func runEvents(t *testing.T, index *testutil.MemIndex, events ...queue.Event) *fakeAck {
	t.Helper()
	ack := &fakeAck{}
	ch := make(chan queue.Delivery, len(events))
	for _, ev := range events {
		ch <- queue.NewDelivery(ev, ack)
	}
	close(ch)

	w := New(index, chanSource{ch: ch}, zaptest.NewLogger(t))
	require.NoError(t, w.Run(context.Background()))
	return ack
}

func TestWorker_AppliesAndAcks(t *testing.T) {
	index := testutil.NewMemIndex()
	rec := models.NewSearchRecord(models.Car{ID: "c1", Brand: "Kia", Name: "Rio"})
	other := models.NewSearchRecord(models.Car{ID: "c2", Brand: "Kia", Name: "Ceed"})

	ack := runEvents(t, index,
		queue.Event{Op: queue.OpConfigure},
		queue.Event{Op: queue.OpUpsert, Record: &rec},
		queue.Event{Op: queue.OpUpsert, Record: &other},
		queue.Event{Op: queue.OpDelete, ID: "c2"},
	)

	assert.Equal(t, []settle{acked, acked, acked, acked}, ack.settled())
	assert.Equal(t, 1, index.Configured)
	assert.Equal(t, map[string]models.SearchRecord{"c1": rec}, index.Records())
}

func TestWorker_ReplaceAll(t *testing.T) {
	index := testutil.NewMemIndex()
	stale := models.NewSearchRecord(models.Car{ID: "old"})
	require.NoError(t, index.UpsertRecord(context.Background(), stale))

	fresh := []models.SearchRecord{
		models.NewSearchRecord(models.Car{ID: "a"}),
		models.NewSearchRecord(models.Car{ID: "b"}),
	}
	ack := runEvents(t, index, queue.Event{Op: queue.OpReplaceAll, Records: fresh})

	assert.Equal(t, []settle{acked}, ack.settled())
	assert.Len(t, index.Records(), 2)
	assert.NotContains(t, index.Records(), "old")
}

func TestWorker_RequeuesOnIndexFailure(t *testing.T) {
	index := testutil.NewMemIndex()
	index.WriteErr = errors.New("cluster unavailable")

	ack := runEvents(t, index, queue.Event{Op: queue.OpDelete, ID: "c1"})
	assert.Equal(t, []settle{requeued}, ack.settled())
}

func TestWorker_DiscardsInvalidEvent(t *testing.T) {
	index := testutil.NewMemIndex()
	ack := runEvents(t, index,
		queue.Event{Op: queue.OpUpsert},
		queue.Event{Op: "rebuild"},
	)
	assert.Equal(t, []settle{discarded, discarded}, ack.settled())
}

func TestWorker_StopsOnCancel(t *testing.T) {
	w := New(testutil.NewMemIndex(), chanSource{ch: make(chan queue.Delivery)}, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWorker_ConsumeError(t *testing.T) {
	w := New(testutil.NewMemIndex(), chanSource{err: errors.New("channel closed")}, zaptest.NewLogger(t))
	assert.Error(t, w.Run(context.Background()))
}
