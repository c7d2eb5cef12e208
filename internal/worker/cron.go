package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reindexTimeout = 5 * time.Minute

// Reindexer rebuilds the search index. *catalog.Service satisfies it.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// StartCronJobs registers the full reindex on schedule and starts the
// scheduler. An invalid schedule is returned as an error so main can fail
// fast. A run still in progress when the next tick fires makes that tick a
// no-op.
//
// The returned *cron.Cron must be stopped on shutdown:
//
//	c, err := StartCronJobs(svc, cfg.ReindexSchedule, log)
//	defer c.Stop()
func StartCronJobs(r Reindexer, schedule string, log *zap.Logger) (*cron.Cron, error) {
	log = log.With(zap.String("component", "cron"))
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := c.AddFunc(schedule, func() { runReindex(r, log) })
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info("cron scheduler started", zap.String("schedule", schedule))
	return c, nil
}

func runReindex(r Reindexer, log *zap.Logger) {
	log.Info("reindex started")

	ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
	defer cancel()

	n, err := r.Reindex(ctx)
	if err != nil {
		log.Error("reindex failed", zap.Error(err))
		return
	}
	log.Info("reindex done", zap.Int("records", n))
}
