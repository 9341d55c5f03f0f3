package reservation

import (
	"math"
	"time"

	"github.com/roomdesk/service-reservation/pkg/domain"
)

// PricingStrategy defines the interface for calculating reservation cost.
type PricingStrategy interface {
	// Calculate returns the total cost in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for cost calculation.
type PricingParams struct {
	HourlyPriceCents int64
	Start            time.Time
	End              time.Time
}

// HourlyPricingStrategy bills whole minutes at the room's hourly price.
type HourlyPricingStrategy struct{}

// NewHourlyPricingStrategy creates a new HourlyPricingStrategy.
func NewHourlyPricingStrategy() *HourlyPricingStrategy {
	return &HourlyPricingStrategy{}
}

// DurationMinutes returns the whole minutes between start and end, truncated.
func DurationMinutes(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Minute)
}

// Calculate computes the cost in cents.
//
// Pricing formula:
//   - minutes = whole minutes between start and end, must be > 0
//   - cost = hourly price * minutes / 60, rounded half-up to the cent
func (s *HourlyPricingStrategy) Calculate(params PricingParams) (int64, error) {
	minutes := DurationMinutes(params.Start, params.End)
	if minutes <= 0 {
		return 0, domain.NewValidationError("reservation duration must be positive")
	}
	if params.HourlyPriceCents <= 0 {
		return 0, domain.NewValidationError("invalid room price")
	}
	if params.HourlyPriceCents > (math.MaxInt64-30)/minutes {
		return 0, domain.NewValidationError("reservation cost out of range")
	}

	return (params.HourlyPriceCents*minutes + 30) / 60, nil
}
