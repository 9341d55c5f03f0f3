package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/roomdesk/service-reservation/internal/application"
	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	"github.com/roomdesk/service-reservation/pkg/domain"
	"github.com/roomdesk/service-reservation/pkg/events"
	"github.com/roomdesk/service-reservation/pkg/kafka"
)

// RoomStatusChanger applies facility status changes to rooms.
type RoomStatusChanger interface {
	SetRoomStatus(ctx context.Context, id uuid.UUID, status roomDomain.Status) (*application.RoomDTO, error)
}

// FacilityEventConsumer listens to facility events and closes or reopens rooms.
type FacilityEventConsumer struct {
	consumer *kafka.Consumer
	rooms    RoomStatusChanger
	logger   *zap.Logger
}

// NewFacilityEventConsumer creates a new FacilityEventConsumer.
func NewFacilityEventConsumer(
	brokers []string,
	groupID string,
	rooms RoomStatusChanger,
	logger *zap.Logger,
) *FacilityEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicFacilityEvents, logger)
	return &FacilityEventConsumer{
		consumer: consumer,
		rooms:    rooms,
		logger:   logger,
	}
}

// Start begins consuming facility events. This blocks until the context is cancelled.
func (c *FacilityEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FacilityEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FacilityEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from facility topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.FacilityRoomClosed:
		return c.applyStatus(ctx, cloudEvent, roomDomain.StatusCancelled)
	case events.FacilityRoomReopened:
		return c.applyStatus(ctx, cloudEvent, roomDomain.StatusAvailable)
	default:
		c.logger.Debug("ignoring unhandled facility event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FacilityEventConsumer) applyStatus(ctx context.Context, cloudEvent kafka.CloudEvent, status roomDomain.Status) error {
	var evt events.FacilityRoomEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse facility room event data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	}

	_, err := c.rooms.SetRoomStatus(ctx, evt.RoomID, status)
	switch {
	case err == nil:
		c.logger.Info("room status changed by facility event",
			zap.String("room_id", evt.RoomID.String()),
			zap.String("status", string(status)),
			zap.String("reason", evt.Reason),
		)
		return nil
	case domain.IsNotFound(err), domain.IsConflict(err):
		// Unknown rooms and rooms held by a reservation are skipped.
		c.logger.Warn("facility event not applied",
			zap.String("room_id", evt.RoomID.String()),
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	default:
		c.logger.Error("failed to apply facility event",
			zap.String("room_id", evt.RoomID.String()),
			zap.Error(err),
		)
		return err
	}
}
