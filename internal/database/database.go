// Package database holds the document-store backends for the catalog. Both
// backends expose the same method set over the cars, brands and categories
// collections; the catalog service picks one at startup.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Operation timeouts.
// These cap how long a single store call can hold a connection. They are
// tighter than the HTTP WriteTimeout so the handler can still answer with a
// clean error before the client gives up.
const (
	readTimeout   = 5 * time.Second
	writeTimeout  = 5 * time.Second
	schemaTimeout = 30 * time.Second
)

const (
	carsCollection       = "cars"
	brandsCollection     = "brands"
	categoriesCollection = "categories"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("database: document not found")

// now is the timestamp source for createdAt/updatedAt. BSON keeps millisecond
// precision, so both backends truncate to it for identical round trips.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// newID returns a time-ordered UUIDv7, so ids created within the same
// millisecond still sort in insertion order behind createdAt.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func withRead(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, readTimeout)
}

func withWrite(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, writeTimeout)
}
