package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// CreateRoomRequest is the request DTO for creating a room.
type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	RoomNumber string `json:"room_number" binding:"required"`
	Location   string `json:"location" binding:"required"`
	Capacity   int    `json:"capacity" binding:"min=0"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
	Status     string `json:"status"`
}

// UpdateRoomRequest is the request DTO for updating a room. Nil fields are left unchanged.
type UpdateRoomRequest struct {
	Name       *string `json:"name"`
	RoomNumber *string `json:"room_number"`
	Location   *string `json:"location"`
	Capacity   *int    `json:"capacity"`
	PriceCents *int64  `json:"price_cents"`
	Status     *string `json:"status"`
}

// RoomDTO is the API response representation of a room.
type RoomDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	RoomNumber string    `json:"room_number"`
	Location   string    `json:"location"`
	Capacity   int       `json:"capacity"`
	PriceCents int64     `json:"price_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoomService implements room management use cases.
type RoomService struct {
	tx           Transactor
	rooms        roomDomain.RoomRepository
	reservations reservationDomain.ReservationRepository
	logger       *zap.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(
	tx Transactor,
	rooms roomDomain.RoomRepository,
	reservations reservationDomain.ReservationRepository,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{tx: tx, rooms: rooms, reservations: reservations, logger: logger}
}

// CreateRoom registers a new room.
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomDTO, error) {
	status, err := parseRoomStatus(req.Status)
	if err != nil {
		return nil, err
	}

	rm, err := roomDomain.NewRoom(roomDomain.Details{
		Name:       req.Name,
		RoomNumber: req.RoomNumber,
		Location:   req.Location,
		Capacity:   req.Capacity,
		PriceCents: req.PriceCents,
	}, status)
	if err != nil {
		return nil, err
	}

	if err := s.rooms.Save(ctx, rm); err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		zap.String("room_id", rm.ID().String()),
		zap.String("name", rm.Name()),
	)

	result := toRoomDTO(rm)
	return &result, nil
}

// GetRoom retrieves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, id uuid.UUID) (*RoomDTO, error) {
	rm, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toRoomDTO(rm)
	return &result, nil
}

// SearchRooms lists rooms whose name contains search, newest first.
func (s *RoomService) SearchRooms(ctx context.Context, search string, page, limit int) (*domain.PaginatedResult[RoomDTO], error) {
	rooms, total, err := s.rooms.SearchByName(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]RoomDTO, len(rooms))
	for i, rm := range rooms {
		dtos[i] = toRoomDTO(rm)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateRoom changes a room's details and, for rooms not held by a
// reservation, its AVAILABLE/CANCELLED status.
func (s *RoomService) UpdateRoom(ctx context.Context, id uuid.UUID, req UpdateRoomRequest) (*RoomDTO, error) {
	var result RoomDTO
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rm, err := s.rooms.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		details := rm.Details()
		if req.Name != nil {
			details.Name = *req.Name
		}
		if req.RoomNumber != nil {
			details.RoomNumber = *req.RoomNumber
		}
		if req.Location != nil {
			details.Location = *req.Location
		}
		if req.Capacity != nil {
			details.Capacity = *req.Capacity
		}
		if req.PriceCents != nil {
			details.PriceCents = *req.PriceCents
		}
		if err := rm.UpdateDetails(details); err != nil {
			return err
		}

		if req.Status != nil {
			status, err := roomDomain.ParseStatus(*req.Status)
			if err != nil {
				return domain.NewValidationError(err.Error())
			}
			if err := rm.ChangeStatus(status); err != nil {
				return err
			}
		}

		rm.IncrementVersion()
		if err := s.rooms.Update(ctx, rm); err != nil {
			return err
		}
		result = toRoomDTO(rm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("room updated",
		zap.String("room_id", id.String()),
		zap.String("status", result.Status),
	)
	return &result, nil
}

// SetRoomStatus applies a facility status change: CANCELLED closes an
// available room, AVAILABLE reopens a closed one. Rooms held by a
// reservation are never closed.
func (s *RoomService) SetRoomStatus(ctx context.Context, id uuid.UUID, status roomDomain.Status) (*RoomDTO, error) {
	var result RoomDTO
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rm, err := s.rooms.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := rm.ChangeStatus(status); err != nil {
			return err
		}
		rm.IncrementVersion()
		if err := s.rooms.Update(ctx, rm); err != nil {
			return err
		}
		result = toRoomDTO(rm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("room status changed",
		zap.String("room_id", id.String()),
		zap.String("status", string(status)),
	)
	return &result, nil
}

// DeleteRoom removes a room that no reservation references.
func (s *RoomService) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		inUse, err := s.reservations.ExistsByRoomID(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return domain.NewConflictError("room has reservations")
		}
		return s.rooms.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("room deleted", zap.String("room_id", id.String()))
	return nil
}

func parseRoomStatus(s string) (roomDomain.Status, error) {
	if s == "" {
		return roomDomain.StatusAvailable, nil
	}
	status, err := roomDomain.ParseStatus(s)
	if err != nil {
		return "", domain.NewValidationError(err.Error())
	}
	return status, nil
}

func toRoomDTO(rm *roomDomain.Room) RoomDTO {
	return RoomDTO{
		ID:         rm.ID(),
		Name:       rm.Name(),
		RoomNumber: rm.RoomNumber(),
		Location:   rm.Location(),
		Capacity:   rm.Capacity(),
		PriceCents: rm.PriceCents(),
		Status:     string(rm.Status()),
		CreatedAt:  rm.CreatedAt(),
		UpdatedAt:  rm.UpdatedAt(),
	}
}
