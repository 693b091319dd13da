package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/id"
	"posledger/internal/domain/ledger"
	"posledger/internal/infrastructure/storage/postgres"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func recordedMessage(t *testing.T, e ledger.Entry) *postgres.OutboxMessage {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return &postgres.OutboxMessage{
		ID:        id.New(),
		EventType: postgres.EventLedgerEntryRecorded,
		Payload:   body,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublisher_Handle(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}
	msg := recordedMessage(t, ledger.Entry{ID: id.New(), DeviceID: "till-1", EventType: ledger.EventSale})

	require.NoError(t, p.Handle(context.Background(), msg))

	require.Len(t, w.msgs, 1)
	out := w.msgs[0]
	assert.Equal(t, []byte("till-1"), out.Key)
	assert.Equal(t, msg.Payload, out.Value)
	assert.Equal(t, msg.CreatedAt, out.Time)
	assert.Contains(t, out.Headers, kafka.Header{Key: "event_type", Value: []byte(postgres.EventLedgerEntryRecorded)})
}

func TestPublisher_Handle_Errors(t *testing.T) {
	p := &Publisher{writer: &recordingWriter{}}
	err := p.Handle(context.Background(), &postgres.OutboxMessage{Payload: []byte("{")})
	assert.Error(t, err)

	p = &Publisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err = p.Handle(context.Background(), recordedMessage(t, ledger.Entry{ID: id.New(), DeviceID: "till-1"}))
	assert.ErrorContains(t, err, "broker down")
}
