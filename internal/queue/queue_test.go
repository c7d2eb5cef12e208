package queue

import (
	"encoding/json"
	"testing"

	"car-rental-catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked, requeued, discarded int
}

func (f *fakeAck) Ack(bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ bool, requeue bool) error {
	if requeue {
		f.requeued++
	} else {
		f.discarded++
	}
	return nil
}

func TestDecode(t *testing.T) {
	rec := models.NewSearchRecord(models.Car{ID: "c1", Brand: "Ferrari", Name: "Roma"})
	body, err := json.Marshal(Event{Op: OpUpsert, ID: "c1", Record: &rec})
	require.NoError(t, err)

	ev, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, OpUpsert, ev.Op)
	require.NotNil(t, ev.Record)
	assert.Equal(t, "Ferrari Roma", ev.Record.Name)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"unknown op", `{"op":"truncate"}`},
		{"upsert without record", `{"op":"upsert","id":"c1"}`},
		{"delete without id", `{"op":"delete"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDelivery_Settle(t *testing.T) {
	ack := &fakeAck{}
	d := NewDelivery(Event{Op: OpConfigure}, ack)

	require.NoError(t, d.Ack())
	require.NoError(t, d.Nack())
	require.NoError(t, d.Discard())
	assert.Equal(t, fakeAck{acked: 1, requeued: 1, discarded: 1}, *ack)
}
