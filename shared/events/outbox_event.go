package events

import "strings"

const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusPublished  = "PUBLISHED"
	OutboxStatusUnroutable = "UNROUTABLE"
)

// OutboxEvent is a message persisted in the same transaction as the state
// change it announces. EventName is "exchange:routingKey".
type OutboxEvent struct {
	ID          string `json:"id"`
	AggregateID string `json:"aggregateId"`
	EventName   string `json:"eventName"`
	Payload     []byte `json:"payload"`
	Status      string `json:"status"`
}

func SplitEventName(eventName string) (exchange, routingKey string) {
	exchange, routingKey, _ = strings.Cut(eventName, ":")
	return exchange, routingKey
}
