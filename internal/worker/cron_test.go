package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type countingReindexer struct {
	calls int
	err   error
}

func (r *countingReindexer) Reindex(context.Context) (int, error) {
	r.calls++
	return 3, r.err
}

func TestStartCronJobs_InvalidSchedule(t *testing.T) {
	_, err := StartCronJobs(&countingReindexer{}, "every tuesday", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestStartCronJobs_Valid(t *testing.T) {
	c, err := StartCronJobs(&countingReindexer{}, "@every 1h", zaptest.NewLogger(t))
	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}

func TestRunReindex(t *testing.T) {
	r := &countingReindexer{}
	runReindex(r, zaptest.NewLogger(t))
	r.err = errors.New("index down")
	runReindex(r, zaptest.NewLogger(t))
	assert.Equal(t, 2, r.calls)
}
