package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubEventStore struct {
	lastTopic   string
	lastEntity  pgtype.Text
	lastPayload []byte
}

func (s *stubEventStore) InsertDomainEvent(_ context.Context, topic string, entityID pgtype.Text, payload []byte) (store.DomainEvent, error) {
	s.lastTopic = topic
	s.lastEntity = entityID
	s.lastPayload = payload
	return store.DomainEvent{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:     topic,
		EntityID:  entityID,
		Payload:   payload,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureScheduler struct {
	events []store.DomainEvent
}

func (c *captureScheduler) Schedule(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	events []store.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	st := &stubEventStore{}
	scheduler := &captureScheduler{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     st,
		Scheduler: scheduler,
		Notifiers: []events.Notifier{notifier},
	}

	entity := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, entity, map[string]any{"orderId": "123"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, st.lastTopic)
	require.True(t, st.lastEntity.Valid)
	require.JSONEq(t, `{"orderId":"123"}`, string(st.lastPayload))
	require.Len(t, scheduler.events, 1)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, scheduler.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["orderId"])
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := events.Bus{Store: &stubEventStore{}}
	_, err := bus.Emit(context.Background(), "  ", pgtype.UUID{}, nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubEventStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, pgtype.UUID{}, []byte("{not json"))
	require.Error(t, err)
}
