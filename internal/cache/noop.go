package cache

import (
	"context"
	"time"
)

// Noop never stores anything. One-shot tools use it so they always read the
// store directly.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error               { return ErrNotFound }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error               { return nil }
func (Noop) Close() error                                          { return nil }
