package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_SortsInCreationOrder(t *testing.T) {
	ids := make([]string, 500)
	for i := range ids {
		ids[i] = newID()
	}

	for i, id := range ids {
		u, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), u.Version())
		if i > 0 {
			assert.Less(t, ids[i-1], id, "id %d sorts before its predecessor", i)
		}
	}
}
