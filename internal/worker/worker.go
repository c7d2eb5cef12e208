// Package worker applies queued search-sync events to the hosted index and
// runs the scheduled reindex.
package worker

import (
	"context"
	"fmt"
	"time"

	"car-rental-catalog/internal/catalog"
	"car-rental-catalog/internal/metrics"
	"car-rental-catalog/internal/queue"

	"go.uber.org/zap"
)

// perMessageTimeout caps how long a single index write can take. A slow
// cluster gets the message nacked and requeued instead of blocking the loop.
const perMessageTimeout = 30 * time.Second

// Source yields deliveries. *queue.Consumer satisfies it.
type Source interface {
	Consume() (<-chan queue.Delivery, error)
}

// Worker consumes search-sync events and writes them to the index.
type Worker struct {
	index  catalog.IndexWriter
	source Source
	log    *zap.Logger
}

// New constructs a Worker. All dependencies are injected.
func New(index catalog.IndexWriter, source Source, log *zap.Logger) *Worker {
	return &Worker{index: index, source: source, log: log.With(zap.String("component", "worker"))}
}

// Run consumes until ctx is cancelled or the delivery channel closes. The
// in-flight message finishes before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.source.Consume()
	if err != nil {
		return err
	}

	w.log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker shutting down")
			return nil

		case d, ok := <-deliveries:
			if !ok {
				w.log.Warn("delivery channel closed")
				return nil
			}
			w.process(d)
		}
	}
}

// process applies one event and acks it only after the index write
// succeeded. Failed writes are requeued; events that can never apply are
// discarded.
func (w *Worker) process(d queue.Delivery) {
	ev := d.Event
	log := w.log.With(zap.String("op", string(ev.Op)), zap.String("car_id", eventID(ev)))

	if err := ev.Validate(); err != nil {
		log.Error("invalid event discarded", zap.Error(err))
		if err := d.Discard(); err != nil {
			log.Error("discard failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), perMessageTimeout)
	defer cancel()

	if err := w.apply(ctx, ev); err != nil {
		metrics.SearchSyncFailures.WithLabelValues(string(ev.Op)).Inc()
		log.Error("index write failed, requeueing", zap.Error(err))
		if err := d.Nack(); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}

	if err := d.Ack(); err != nil {
		log.Error("ack failed", zap.Error(err))
		return
	}
	log.Info("event applied")
}

func (w *Worker) apply(ctx context.Context, ev queue.Event) error {
	switch ev.Op {
	case queue.OpConfigure:
		return w.index.ConfigureIndex(ctx)
	case queue.OpUpsert:
		return w.index.UpsertRecord(ctx, *ev.Record)
	case queue.OpDelete:
		return w.index.DeleteRecord(ctx, ev.ID)
	case queue.OpReplaceAll:
		return w.index.ReplaceAll(ctx, ev.Records)
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
}

func eventID(ev queue.Event) string {
	if ev.Record != nil {
		return ev.Record.ID
	}
	return ev.ID
}
