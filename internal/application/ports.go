package application

import (
	"context"

	"github.com/roomdesk/service-reservation/pkg/kafka"
)

// Transactor runs fn inside one database transaction. Repositories called
// with the ctx passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes integration events. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

// PublishEvent implements EventPublisher.
func (NopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }
