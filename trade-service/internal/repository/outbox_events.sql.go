package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOutboxEvent = `
INSERT INTO outbox_events (id, aggregate_id, event_name, payload)
VALUES ($1, $2, $3, $4)
`

type CreateOutboxEventParams struct {
	ID          pgtype.UUID `json:"id"`
	AggregateID string      `json:"aggregateId"`
	EventName   string      `json:"eventName"`
	Payload     []byte      `json:"payload"`
}

func (q *Queries) CreateOutboxEvent(ctx context.Context, arg CreateOutboxEventParams) error {
	_, err := q.db.Exec(ctx, createOutboxEvent, arg.ID, arg.AggregateID, arg.EventName, arg.Payload)
	return err
}

const getUnpublishedOutboxEvents = `
SELECT id, aggregate_id, event_name, payload, status, created_at
FROM outbox_events
WHERE status = 'PENDING'
ORDER BY created_at
LIMIT $1
`

func (q *Queries) GetUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := q.db.Query(ctx, getUnpublishedOutboxEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OutboxEvent
	for rows.Next() {
		var i OutboxEvent
		if err := rows.Scan(
			&i.ID,
			&i.AggregateID,
			&i.EventName,
			&i.Payload,
			&i.Status,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOutboxEventStatus = `UPDATE outbox_events SET status = $2 WHERE id = $1`

type UpdateOutboxEventStatusParams struct {
	ID     pgtype.UUID `json:"id"`
	Status string      `json:"status"`
}

func (q *Queries) UpdateOutboxEventStatus(ctx context.Context, arg UpdateOutboxEventStatusParams) error {
	_, err := q.db.Exec(ctx, updateOutboxEventStatus, arg.ID, arg.Status)
	return err
}
