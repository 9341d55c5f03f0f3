package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomdesk/service-reservation/internal/application"
	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	"github.com/roomdesk/service-reservation/pkg/domain"
	"github.com/roomdesk/service-reservation/pkg/events"
	"github.com/roomdesk/service-reservation/pkg/kafka"
)

type mockRooms struct {
	mock.Mock
}

func (m *mockRooms) SetRoomStatus(ctx context.Context, id uuid.UUID, status roomDomain.Status) (*application.RoomDTO, error) {
	args := m.Called(ctx, id, status)
	dto, _ := args.Get(0).(*application.RoomDTO)
	return dto, args.Error(1)
}

func facilityMessage(t *testing.T, eventType string, roomID uuid.UUID) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("facility-service", eventType, events.FacilityRoomEvent{
		RoomID: roomID, Reason: "maintenance", OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	value, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicFacilityEvents, Value: value}
}

func newTestConsumer(rooms RoomStatusChanger) *FacilityEventConsumer {
	return &FacilityEventConsumer{rooms: rooms, logger: zap.NewNop()}
}

func TestFacilityConsumer_AppliesStatus(t *testing.T) {
	roomID := uuid.New()
	rooms := new(mockRooms)
	rooms.On("SetRoomStatus", mock.Anything, roomID, roomDomain.StatusCancelled).Return(&application.RoomDTO{ID: roomID}, nil).Once()
	rooms.On("SetRoomStatus", mock.Anything, roomID, roomDomain.StatusAvailable).Return(&application.RoomDTO{ID: roomID}, nil).Once()

	c := newTestConsumer(rooms)
	require.NoError(t, c.handleMessage(context.Background(), facilityMessage(t, events.FacilityRoomClosed, roomID)))
	require.NoError(t, c.handleMessage(context.Background(), facilityMessage(t, events.FacilityRoomReopened, roomID)))
	rooms.AssertExpectations(t)
}

func TestFacilityConsumer_SkipsReservedAndUnknownRooms(t *testing.T) {
	reserved, unknown := uuid.New(), uuid.New()
	rooms := new(mockRooms)
	rooms.On("SetRoomStatus", mock.Anything, reserved, roomDomain.StatusCancelled).
		Return(nil, domain.NewInvalidStateError("RESERVED", "CANCELLED")).Once()
	rooms.On("SetRoomStatus", mock.Anything, unknown, roomDomain.StatusCancelled).
		Return(nil, domain.NewNotFoundError("Room", unknown.String())).Once()

	c := newTestConsumer(rooms)
	assert.NoError(t, c.handleMessage(context.Background(), facilityMessage(t, events.FacilityRoomClosed, reserved)))
	assert.NoError(t, c.handleMessage(context.Background(), facilityMessage(t, events.FacilityRoomClosed, unknown)))
	rooms.AssertExpectations(t)
}

// queueReader serves queued messages and records committed offsets.
type queueReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error { return nil }

func (r *queueReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestFacilityConsumer_RetriesInfrastructureErrors(t *testing.T) {
	closed, reopened := uuid.New(), uuid.New()
	rooms := new(mockRooms)
	rooms.On("SetRoomStatus", mock.Anything, closed, roomDomain.StatusCancelled).
		Return(nil, errors.New("connection reset")).Once()
	rooms.On("SetRoomStatus", mock.Anything, closed, roomDomain.StatusCancelled).
		Return(&application.RoomDTO{ID: closed}, nil).Once()
	rooms.On("SetRoomStatus", mock.Anything, reopened, roomDomain.StatusAvailable).
		Return(&application.RoomDTO{ID: reopened}, nil).Once()

	first := facilityMessage(t, events.FacilityRoomClosed, closed)
	first.Offset = 1
	second := facilityMessage(t, events.FacilityRoomReopened, reopened)
	second.Offset = 2
	reader := &queueReader{queue: []kafkago.Message{first, second}}

	c := newTestConsumer(rooms)
	c.consumer = kafka.NewConsumerWithReader(reader, func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []int64{1, 2}, reader.commits())
	rooms.AssertExpectations(t)
	rooms.AssertNumberOfCalls(t, "SetRoomStatus", 3)
}

func TestFacilityConsumer_IgnoresMalformedAndUnknownEvents(t *testing.T) {
	rooms := new(mockRooms)
	c := newTestConsumer(rooms)

	assert.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.handleMessage(context.Background(), facilityMessage(t, "facility.room.painted", uuid.New())))
	rooms.AssertNotCalled(t, "SetRoomStatus", mock.Anything, mock.Anything, mock.Anything)
}
