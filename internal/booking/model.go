package booking

import (
	"time"

	"tokenbook/internal/auth"
)

type Booking struct {
	ID          int        `db:"id" json:"id"`
	SeekerID    int        `db:"seeker_id" json:"seekerId"`
	ProviderID  int        `db:"provider_id" json:"providerId"`
	ServiceType string     `db:"service_type" json:"serviceType"`
	Status      Status     `db:"status" json:"status"`
	TokenAmount int64      `db:"token_amount" json:"tokenAmount"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduledAt"`
	Duration    int        `db:"duration" json:"duration"`
	Notes       string     `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// Change describes a committed status transition. From is empty for a newly
// created booking.
type Change struct {
	Booking Booking
	From    Status
	To      Status
	Actor   auth.Actor
	Channel Channel
}

type CreateRequest struct {
	ProviderID  int       `json:"providerId" validate:"required,gt=0"`
	ServiceType string    `json:"serviceType" validate:"required,max=100"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Duration    int       `json:"duration" validate:"required,gt=0,lte=1440"`
	TokenAmount int64     `json:"tokenAmount" validate:"required,gt=0,lte=1000000000"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

type BookingResponse struct {
	Success bool     `json:"success"`
	Booking *Booking `json:"booking"`
}

type BookingsResponse struct {
	Success  bool      `json:"success"`
	Bookings []Booking `json:"bookings"`
}
