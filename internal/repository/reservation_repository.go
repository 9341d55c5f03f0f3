package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID         uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null"`
	StartTime      time.Time `gorm:"not null"`
	EndTime        time.Time `gorm:"not null"`
	Status         string    `gorm:"not null;size:20;index"`
	TotalCostCents int64     `gorm:"not null"`
	Version        int64     `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of ReservationRepository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// ListAll retrieves all reservations with pagination, newest first.
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB { return db }, page, limit)
}

// ListByUserID retrieves a user's reservations with pagination, newest first.
func (r *GormReservationRepository) ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, page, limit)
}

func (r *GormReservationRepository) list(ctx context.Context, filter func(*gorm.DB) *gorm.DB, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&ReservationModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	if err := conn(ctx, r.db).
		Scopes(filter).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	reservations := make([]*reservationDomain.Reservation, len(models))
	for i := range models {
		res, err := toDomainReservation(&models[i])
		if err != nil {
			return nil, 0, err
		}
		reservations[i] = res
	}
	return reservations, total, nil
}

// Save persists a new reservation.
func (r *GormReservationRepository) Save(ctx context.Context, res *reservationDomain.Reservation) error {
	if err := conn(ctx, r.db).Create(toReservationModel(res)).Error; err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// Update persists changes to an existing reservation with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *reservationDomain.Reservation) error {
	model := toReservationModel(res)

	expectedVersion := res.Version() - 1
	result := conn(ctx, r.db).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"room_id":          model.RoomID,
			"user_id":          model.UserID,
			"start_time":       model.StartTime,
			"end_time":         model.EndTime,
			"status":           model.Status,
			"total_cost_cents": model.TotalCostCents,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// Delete removes a reservation.
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&ReservationModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Reservation", id.String())
	}
	return nil
}

// ExistsByRoomID reports whether any reservation references the room.
func (r *GormReservationRepository) ExistsByRoomID(ctx context.Context, roomID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&ReservationModel{}).Where("room_id = ?", roomID).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check room reservations: %w", err)
	}
	return count > 0, nil
}

// ExistsByUserID reports whether any reservation references the user.
func (r *GormReservationRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&ReservationModel{}).Where("user_id = ?", userID).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user reservations: %w", err)
	}
	return count > 0, nil
}

// CountByStatus returns reservation counts grouped by status.
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[reservationDomain.Status]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[reservationDomain.Status]int64)
	for _, sc := range results {
		counts[reservationDomain.Status(sc.Status)] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toReservationModel(res *reservationDomain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:             res.ID(),
		RoomID:         res.RoomID(),
		UserID:         res.UserID(),
		StartTime:      res.StartTime(),
		EndTime:        res.EndTime(),
		Status:         string(res.Status()),
		TotalCostCents: res.TotalCostCents(),
		Version:        res.Version(),
		CreatedAt:      res.CreatedAt(),
		UpdatedAt:      res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*reservationDomain.Reservation, error) {
	status, err := reservationDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return reservationDomain.ReconstructReservation(
		m.ID,
		m.RoomID,
		m.UserID,
		m.StartTime,
		m.EndTime,
		status,
		m.TotalCostCents,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
