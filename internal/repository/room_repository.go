package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	roomDomain "github.com/roomdesk/service-reservation/internal/domain/room"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null;size:100;index"`
	RoomNumber string    `gorm:"not null;size:20"`
	Location   string    `gorm:"not null;size:200"`
	Capacity   int       `gorm:"not null;default:0"`
	PriceCents int64     `gorm:"not null;default:0"`
	Status     string    `gorm:"not null;size:20;index"`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RoomModel) TableName() string {
	return "rooms"
}

// GormRoomRepository is the GORM-based implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByID retrieves a room by its unique identifier.
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	return r.find(conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a room with SELECT ... FOR UPDATE. Only
// meaningful inside GormTransactor.WithinTransaction.
func (r *GormRoomRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRoomRepository) find(db *gorm.DB, id uuid.UUID) (*roomDomain.Room, error) {
	var model RoomModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", id.String())
		}
		return nil, fmt.Errorf("failed to find room by ID: %w", err)
	}
	return toDomainRoom(&model)
}

// SearchByName returns rooms whose name contains search, newest first.
// An empty search matches every room.
func (r *GormRoomRepository) SearchByName(ctx context.Context, search string, page, limit int) ([]*roomDomain.Room, int64, error) {
	filter := nameFilter([]string{"name"}, search)

	var total int64
	if err := conn(ctx, r.db).Model(&RoomModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	var models []RoomModel
	if err := conn(ctx, r.db).
		Scopes(filter).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search rooms: %w", err)
	}

	rooms := make([]*roomDomain.Room, len(models))
	for i := range models {
		rm, err := toDomainRoom(&models[i])
		if err != nil {
			return nil, 0, err
		}
		rooms[i] = rm
	}
	return rooms, total, nil
}

// Save persists a new room.
func (r *GormRoomRepository) Save(ctx context.Context, rm *roomDomain.Room) error {
	if err := conn(ctx, r.db).Create(toRoomModel(rm)).Error; err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

// Update persists changes to an existing room with optimistic locking.
// The caller is expected to have called IncrementVersion.
func (r *GormRoomRepository) Update(ctx context.Context, rm *roomDomain.Room) error {
	model := toRoomModel(rm)

	expectedVersion := rm.Version() - 1
	result := conn(ctx, r.db).
		Model(&RoomModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":        model.Name,
			"room_number": model.RoomNumber,
			"location":    model.Location,
			"capacity":    model.Capacity,
			"price_cents": model.PriceCents,
			"status":      model.Status,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("room was modified by another transaction")
	}
	return nil
}

// Delete removes a room.
func (r *GormRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&RoomModel{})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return domain.NewConflictError("room is referenced by reservations")
		}
		return fmt.Errorf("failed to delete room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Room", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toRoomModel(rm *roomDomain.Room) *RoomModel {
	return &RoomModel{
		ID:         rm.ID(),
		Name:       rm.Name(),
		RoomNumber: rm.RoomNumber(),
		Location:   rm.Location(),
		Capacity:   rm.Capacity(),
		PriceCents: rm.PriceCents(),
		Status:     string(rm.Status()),
		Version:    rm.Version(),
		CreatedAt:  rm.CreatedAt(),
		UpdatedAt:  rm.UpdatedAt(),
	}
}

func toDomainRoom(m *RoomModel) (*roomDomain.Room, error) {
	status, err := roomDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return roomDomain.ReconstructRoom(
		m.ID,
		roomDomain.Details{
			Name:       m.Name,
			RoomNumber: m.RoomNumber,
			Location:   m.Location,
			Capacity:   m.Capacity,
			PriceCents: m.PriceCents,
		},
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
