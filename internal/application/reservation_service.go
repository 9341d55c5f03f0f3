package application

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	userDomain "github.com/roomdesk/service-reservation/internal/domain/user"
	"github.com/roomdesk/service-reservation/pkg/domain"
	"github.com/roomdesk/service-reservation/pkg/events"
	"github.com/roomdesk/service-reservation/pkg/kafka"
)

const eventSource = "service-reservation"

// ReservationRequest holds the data needed to create or update a reservation.
type ReservationRequest struct {
	RoomID    uuid.UUID             `json:"room_id" binding:"required"`
	UserID    uuid.UUID             `json:"user_id"`
	StartTime *domain.LocalDateTime `json:"start_time" binding:"required"`
	EndTime   *domain.LocalDateTime `json:"end_time" binding:"required"`
}

func (r ReservationRequest) validate() error {
	if r.RoomID == uuid.Nil {
		return domain.NewValidationError("room_id is required")
	}
	if r.UserID == uuid.Nil {
		return domain.NewValidationError("user_id is required")
	}
	if r.StartTime == nil || r.EndTime == nil {
		return domain.NewValidationError("start_time and end_time are required")
	}
	return nil
}

// ReservationDTO is the response representation of a reservation together
// with its room and user.
type ReservationDTO struct {
	ID             uuid.UUID            `json:"id"`
	Room           RoomDTO              `json:"room"`
	User           UserDTO              `json:"user"`
	StartTime      domain.LocalDateTime `json:"start_time"`
	EndTime        domain.LocalDateTime `json:"end_time"`
	Status         string               `json:"status"`
	TotalCostCents int64                `json:"total_cost_cents"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ReservationStatsDTO holds reservation counts for the admin dashboard.
type ReservationStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ReservationService is the booking engine. Every write runs in one
// transaction that locks the affected room rows, so room occupancy and
// reservations are committed or rolled back together.
type ReservationService struct {
	tx           Transactor
	reservations reservationDomain.ReservationRepository
	rooms        roomDomain.RoomRepository
	users        userDomain.UserRepository
	pricing      reservationDomain.PricingStrategy
	publisher    EventPublisher
	logger       *zap.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	tx Transactor,
	reservations reservationDomain.ReservationRepository,
	rooms roomDomain.RoomRepository,
	users userDomain.UserRepository,
	pricing reservationDomain.PricingStrategy,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		tx:           tx,
		reservations: reservations,
		rooms:        rooms,
		users:        users,
		pricing:      pricing,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateReservation books a room for a user. The room flips to RESERVED in
// the same transaction that stores the reservation.
func (s *ReservationService) CreateReservation(ctx context.Context, req ReservationRequest) (*ReservationDTO, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start, end := req.StartTime.Time, req.EndTime.Time

	var result ReservationDTO
	var created *reservationDomain.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rm, err := s.rooms.FindByIDForUpdate(ctx, req.RoomID)
		if err != nil {
			return err
		}
		u, err := s.users.FindByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if rm.IsReserved() {
			return domain.NewConflictError("room already reserved")
		}
		if err := reservationDomain.ValidateInterval(start, end); err != nil {
			return err
		}
		cost, err := s.pricing.Calculate(reservationDomain.PricingParams{
			HourlyPriceCents: rm.PriceCents(),
			Start:            start,
			End:              end,
		})
		if err != nil {
			return err
		}

		if err := rm.Reserve(); err != nil {
			return err
		}
		rm.IncrementVersion()
		if err := s.rooms.Update(ctx, rm); err != nil {
			return err
		}

		res, err := reservationDomain.NewReservation(rm.ID(), u.ID(), start, end, cost)
		if err != nil {
			return err
		}
		if err := s.reservations.Save(ctx, res); err != nil {
			return err
		}

		created = res
		result = toReservationDTO(res, rm, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", created.ID().String()),
		zap.String("room_id", created.RoomID().String()),
		zap.String("user_id", created.UserID().String()),
		zap.Int64("total_cost_cents", created.TotalCostCents()),
	)
	s.publishReservationEvent(ctx, events.ReservationCreated, created, nil)

	return &result, nil
}

// UpdateReservation moves a reservation to new times and, optionally, a new
// room. When the room changes the old room is released before the new one is
// checked; a conflict on the new room rolls the release back.
func (s *ReservationService) UpdateReservation(ctx context.Context, id uuid.UUID, req ReservationRequest) (*ReservationDTO, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start, end := req.StartTime.Time, req.EndTime.Time

	var result ReservationDTO
	var updated *reservationDomain.Reservation
	var previousRoomID uuid.UUID
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		res, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !res.IsActive() {
			return domain.NewConflictError("reservation is cancelled")
		}
		if err := reservationDomain.ValidateInterval(start, end); err != nil {
			return err
		}
		previousRoomID = res.RoomID()

		locked, err := s.lockRooms(ctx, req.RoomID, res.RoomID())
		if err != nil {
			return err
		}
		requested := locked[req.RoomID]

		u, err := s.users.FindByID(ctx, res.UserID())
		if err != nil {
			return err
		}
		if req.UserID != u.ID() {
			if u, err = s.users.FindByID(ctx, req.UserID); err != nil {
				return err
			}
		}

		if requested.ID() != res.RoomID() {
			current := locked[res.RoomID()]
			current.Release()
			current.IncrementVersion()
			if err := s.rooms.Update(ctx, current); err != nil {
				return err
			}

			if requested.IsReserved() {
				return domain.NewConflictError("room already reserved")
			}
			if err := requested.Reserve(); err != nil {
				return err
			}
			requested.IncrementVersion()
			if err := s.rooms.Update(ctx, requested); err != nil {
				return err
			}
		}

		cost, err := s.pricing.Calculate(reservationDomain.PricingParams{
			HourlyPriceCents: requested.PriceCents(),
			Start:            start,
			End:              end,
		})
		if err != nil {
			return err
		}

		if err := res.Reschedule(requested.ID(), u.ID(), start, end, cost); err != nil {
			return err
		}
		res.IncrementVersion()
		if err := s.reservations.Update(ctx, res); err != nil {
			return err
		}

		updated = res
		result = toReservationDTO(res, requested, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var prev *uuid.UUID
	if previousRoomID != updated.RoomID() {
		prev = &previousRoomID
	}
	s.logger.Info("reservation updated",
		zap.String("reservation_id", updated.ID().String()),
		zap.String("room_id", updated.RoomID().String()),
		zap.Bool("room_changed", prev != nil),
	)
	s.publishReservationEvent(ctx, events.ReservationUpdated, updated, prev)

	return &result, nil
}

// CancelReservation ends an active reservation and frees its room.
func (s *ReservationService) CancelReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	var result ReservationDTO
	var cancelled *reservationDomain.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		res, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		u, err := s.users.FindByID(ctx, res.UserID())
		if err != nil {
			return err
		}
		rm, err := s.rooms.FindByIDForUpdate(ctx, res.RoomID())
		if err != nil {
			return err
		}

		if err := res.Cancel(); err != nil {
			return err
		}
		res.IncrementVersion()
		if err := s.reservations.Update(ctx, res); err != nil {
			return err
		}

		if rm.IsReserved() {
			rm.Release()
			rm.IncrementVersion()
			if err := s.rooms.Update(ctx, rm); err != nil {
				return err
			}
		}

		cancelled = res
		result = toReservationDTO(res, rm, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", cancelled.ID().String()),
		zap.String("room_id", cancelled.RoomID().String()),
	)
	s.publishReservationEvent(ctx, events.ReservationCancelled, cancelled, nil)

	return &result, nil
}

// DeleteReservation removes a reservation and releases its room. A cancelled
// reservation no longer holds its room, so the room is left untouched.
func (s *ReservationService) DeleteReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	var result ReservationDTO
	var deleted *reservationDomain.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		res, err := s.reservations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		u, err := s.users.FindByID(ctx, res.UserID())
		if err != nil {
			return err
		}
		rm, err := s.rooms.FindByIDForUpdate(ctx, res.RoomID())
		if err != nil {
			return err
		}

		if res.IsActive() && rm.IsReserved() {
			rm.Release()
			rm.IncrementVersion()
			if err := s.rooms.Update(ctx, rm); err != nil {
				return err
			}
		}

		if err := s.reservations.Delete(ctx, res.ID()); err != nil {
			return err
		}

		deleted = res
		result = toReservationDTO(res, rm, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation deleted",
		zap.String("reservation_id", deleted.ID().String()),
		zap.String("room_id", deleted.RoomID().String()),
	)
	s.publishReservationEvent(ctx, events.ReservationDeleted, deleted, nil)

	return &result, nil
}

// GetReservation retrieves a single reservation by ID.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dtos, err := s.project(ctx, []*reservationDomain.Reservation{res})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// ListReservations returns all reservations, newest first.
func (s *ReservationService) ListReservations(ctx context.Context, page, limit int) (*domain.PaginatedResult[ReservationDTO], error) {
	list, total, err := s.reservations.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos, err := s.project(ctx, list)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListUserReservations returns one user's reservations, newest first.
func (s *ReservationService) ListUserReservations(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReservationDTO], error) {
	list, total, err := s.reservations.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos, err := s.project(ctx, list)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetReservationStats returns reservation counts by status (admin).
func (s *ReservationService) GetReservationStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation stats: %w", err)
	}

	stats := &ReservationStatsDTO{
		ByStatus: map[string]int64{
			string(reservationDomain.StatusReserved):  0,
			string(reservationDomain.StatusCancelled): 0,
		},
	}
	for status, c := range counts {
		stats.ByStatus[string(status)] = c
		stats.TotalReservations += c
	}
	return stats, nil
}

// --- Helpers ---

// lockRooms row-locks the given rooms in a fixed order so two transactions
// touching the same pair cannot deadlock.
func (s *ReservationService) lockRooms(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*roomDomain.Room, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i][:], unique[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*roomDomain.Room, len(unique))
	for _, id := range unique {
		rm, err := s.rooms.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = rm
	}
	return locked, nil
}

// project attaches room and user to each reservation, looking each one up once.
func (s *ReservationService) project(ctx context.Context, list []*reservationDomain.Reservation) ([]ReservationDTO, error) {
	rooms := make(map[uuid.UUID]*roomDomain.Room)
	users := make(map[uuid.UUID]*userDomain.User)

	dtos := make([]ReservationDTO, len(list))
	for i, res := range list {
		rm, ok := rooms[res.RoomID()]
		if !ok {
			var err error
			if rm, err = s.rooms.FindByID(ctx, res.RoomID()); err != nil {
				return nil, err
			}
			rooms[rm.ID()] = rm
		}
		u, ok := users[res.UserID()]
		if !ok {
			var err error
			if u, err = s.users.FindByID(ctx, res.UserID()); err != nil {
				return nil, err
			}
			users[u.ID()] = u
		}
		dtos[i] = toReservationDTO(res, rm, u)
	}
	return dtos, nil
}

func toReservationDTO(res *reservationDomain.Reservation, rm *roomDomain.Room, u *userDomain.User) ReservationDTO {
	return ReservationDTO{
		ID:             res.ID(),
		Room:           toRoomDTO(rm),
		User:           toUserDTO(u),
		StartTime:      domain.NewLocalDateTime(res.StartTime()),
		EndTime:        domain.NewLocalDateTime(res.EndTime()),
		Status:         string(res.Status()),
		TotalCostCents: res.TotalCostCents(),
		CreatedAt:      res.CreatedAt(),
		UpdatedAt:      res.UpdatedAt(),
	}
}

// publishReservationEvent publishes after commit. Failures are logged and
// never undo the committed change.
func (s *ReservationService) publishReservationEvent(ctx context.Context, eventType string, res *reservationDomain.Reservation, previousRoomID *uuid.UUID) {
	evt := events.ReservationEvent{
		ReservationID:  res.ID(),
		RoomID:         res.RoomID(),
		PreviousRoomID: previousRoomID,
		UserID:         res.UserID(),
		StartTime:      res.StartTime(),
		EndTime:        res.EndTime(),
		Status:         string(res.Status()),
		TotalCostCents: res.TotalCostCents(),
		OccurredAt:     time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = res.ID().String()

	if err := s.publisher.PublishEvent(ctx, events.TopicReservationEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicReservationEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
