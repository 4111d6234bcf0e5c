package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/events"
)

// EventRepo persists domain events emitted by the bus.
type EventRepo struct {
	DB Querier
}

func (r EventRepo) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	ev := events.Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload)
		 VALUES ($1, $2, $3, $4)
		 RETURNING occurred_at`,
		ev.ID, topic, aggregateID, payload,
	).Scan(&ev.OccurredAt)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

var _ events.EventStore = EventRepo{}
